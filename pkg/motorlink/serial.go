package motorlink

import (
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialLink writes the same frames as UDPLink to a motor board on a serial port.
type SerialLink struct {
	lock sync.Mutex
	port serial.Port
}

var _ Interface = (*SerialLink)(nil)

func NewSerial(portName string, baud int) (*SerialLink, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial port %s", portName)
	}
	return &SerialLink{port: port}, nil
}

func (l *SerialLink) SetPower(motorID int, power float64) error {
	b, err := EncodeFrame(motorID, power)
	if err != nil {
		return err
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	_, err = l.port.Write(b)
	if err != nil {
		return errors.Wrapf(err, "writing power for motor %d", motorID)
	}
	return nil
}

func (l *SerialLink) Close() error {
	return l.port.Close()
}
