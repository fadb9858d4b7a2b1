package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/gamepad"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
)

// Linux joystick API (linux/joystick.h) event reader.  Button and axis numbers follow the
// DualShock4 layout in package gamepad.

type EventType uint8

const (
	EventTypeButton EventType = 1
	EventTypeAxis   EventType = 2

	eventTypeInit = 0x80
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return FromReader(f), nil
}

// FromReader reads js_event records from r, for example a recorded device stream.
func FromReader(r io.ReadCloser) *Joystick {
	return &Joystick{device: r}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type &^ eventTypeInit),
		Number: rawEvent.Number,
	}, nil
}

// Stream sends events until the device fails or ctx is done, then closes both the device and
// events.
func (j *Joystick) Stream(ctx context.Context, events chan<- *Event) error {
	defer close(events)
	defer j.Close()
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			fmt.Printf("Failed to read from joystick: %v.\n", err)
			return err
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// State accumulates events into the current state of every button and axis, the way the ROS joy
// node does, so that each report carries the whole pad.
type State struct {
	joy *msgs.Joy
}

func NewState() *State {
	return &State{joy: gamepad.Blank()}
}

// Apply records the event.  It returns false for events outside the DualShock4 layout.
func (s *State) Apply(e *Event) bool {
	switch e.Type {
	case EventTypeButton:
		if int(e.Number) >= len(s.joy.Buttons) {
			return false
		}
		if e.Value != 0 {
			s.joy.Buttons[e.Number] = 1
		} else {
			s.joy.Buttons[e.Number] = 0
		}
		return true
	case EventTypeAxis:
		if int(e.Number) >= len(s.joy.Axes) {
			return false
		}
		// The kernel reports up/left as negative; Joy messages use up/left positive.
		v := -float64(e.Value) / math.MaxInt16
		s.joy.Axes[e.Number] = float32(math.Max(-1, math.Min(1, v)))
		return true
	}
	return false
}

// Joy returns a copy of the current state.
func (s *State) Joy() *msgs.Joy {
	return &msgs.Joy{
		Axes:    append([]float32(nil), s.joy.Axes...),
		Buttons: append([]int32(nil), s.joy.Buttons...),
	}
}
