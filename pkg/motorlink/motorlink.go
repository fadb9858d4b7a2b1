package motorlink

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Frame layout, little endian:
//
//	byte 0     motor ID
//	bytes 1-8  power fraction, float64 in [-1, 1]
const FrameSize = 9

type Interface interface {
	SetPower(motorID int, power float64) error
	Close() error
}

type frame struct {
	MotorID uint8
	Power   float64
}

var ErrBadFrame = errors.New("bad motor frame")

// MaxMotorID is the largest ID a frame can address.
const MaxMotorID = math.MaxUint8

func EncodeFrame(motorID int, power float64) ([]byte, error) {
	if motorID < 0 || motorID > MaxMotorID {
		return nil, errors.Errorf("motor ID %d out of range", motorID)
	}
	if math.IsNaN(power) {
		return nil, errors.New("power is NaN")
	}
	power = math.Max(-1, math.Min(1, power))

	var buf bytes.Buffer
	buf.Grow(FrameSize)
	// Writes to a bytes.Buffer can't fail.
	_ = binary.Write(&buf, binary.LittleEndian, frame{MotorID: uint8(motorID), Power: power})
	return buf.Bytes(), nil
}

func DecodeFrame(b []byte) (motorID int, power float64, err error) {
	if len(b) != FrameSize {
		return 0, 0, errors.Wrapf(ErrBadFrame, "got %d bytes, expected %d", len(b), FrameSize)
	}
	var f frame
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &f); err != nil {
		return 0, 0, errors.Wrap(err, "reading motor frame")
	}
	return int(f.MotorID), f.Power, nil
}

func Dummy() Interface {
	return &dummyLink{}
}

type dummyLink struct{}

func (d *dummyLink) SetPower(motorID int, power float64) error {
	fmt.Printf("Dummy motor link: motor=%d power=%.3f\n", motorID, power)
	return nil
}

func (d *dummyLink) Close() error {
	return nil
}
