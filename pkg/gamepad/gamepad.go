package gamepad

import (
	"github.com/pkg/errors"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
)

// DualShock4 button and axis layout, as reported both by the Linux joystick driver and by the ROS
// joy node.
//
// Buttons
//
//	Cross    = 0
//	Circle   = 1
//	Triangle = 2
//	Square   = 3
//	L1       = 4
//	R1       = 5
//	L2       = 6 (also an axis)
//	R2       = 7 (also an axis)
//	Share    = 8
//	Options  = 9
//	PS       = 10
//	L stick  = 11
//	R stick  = 12
//
// Axes (normalised to [-1, 1] in a Joy message)
//
//	L stick l/r = 0 (left = +1)
//	L stick u/d = 1 (up = +1)
//	L2          = 2 (unpressed = +1; fully pressed = -1)
//	R stick l/r = 3 (left = +1)
//	R stick u/d = 4 (up = +1)
//	R2          = 5 (unpressed = +1; fully pressed = -1)
//	D-pad   l/r = 6 (left = +1)
//	D-pad   u/d = 7 (up = +1)
const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10
	ButtonLStick   = 11
	ButtonRStick   = 12

	NumButtons = 13

	AxisLStickX = 0
	AxisLStickY = 1
	AxisL2      = 2
	AxisRStickX = 3
	AxisRStickY = 4
	AxisR2      = 5
	AxisDPadX   = 6
	AxisDPadY   = 7

	NumAxes = 8
)

var ErrMalformed = errors.New("malformed DualShock4 joy message")

// DualShock4 is a decoded view of one Joy message.
type DualShock4 struct {
	buttons [NumButtons]bool
	axes    [NumAxes]float64
}

// Decode checks that the message carries a full DualShock4 report and decodes it.
func Decode(j *msgs.Joy) (*DualShock4, error) {
	if j == nil {
		return nil, errors.Wrap(ErrMalformed, "nil message")
	}
	if len(j.Buttons) < NumButtons {
		return nil, errors.Wrapf(ErrMalformed, "got %d buttons, need %d", len(j.Buttons), NumButtons)
	}
	if len(j.Axes) < NumAxes {
		return nil, errors.Wrapf(ErrMalformed, "got %d axes, need %d", len(j.Axes), NumAxes)
	}
	d := &DualShock4{}
	for i := range d.buttons {
		d.buttons[i] = j.Buttons[i] != 0
	}
	for i := range d.axes {
		d.axes[i] = float64(j.Axes[i])
	}
	return d, nil
}

func (d *DualShock4) Pressed(button int) bool {
	if button < 0 || button >= NumButtons {
		return false
	}
	return d.buttons[button]
}

func (d *DualShock4) Axis(axis int) float64 {
	if axis < 0 || axis >= NumAxes {
		return 0
	}
	return d.axes[axis]
}

func (d *DualShock4) PressedCross() bool    { return d.buttons[ButtonCross] }
func (d *DualShock4) PressedCircle() bool   { return d.buttons[ButtonCircle] }
func (d *DualShock4) PressedTriangle() bool { return d.buttons[ButtonTriangle] }
func (d *DualShock4) PressedSquare() bool   { return d.buttons[ButtonSquare] }
func (d *DualShock4) PressedL1() bool       { return d.buttons[ButtonL1] }
func (d *DualShock4) PressedR1() bool       { return d.buttons[ButtonR1] }
func (d *DualShock4) PressedL2() bool       { return d.buttons[ButtonL2] }
func (d *DualShock4) PressedR2() bool       { return d.buttons[ButtonR2] }
func (d *DualShock4) PressedShare() bool    { return d.buttons[ButtonShare] }
func (d *DualShock4) PressedOptions() bool  { return d.buttons[ButtonOptions] }
func (d *DualShock4) PressedPS() bool       { return d.buttons[ButtonPS] }

// Blank returns a Joy message with every button released and the sticks centred.
func Blank() *msgs.Joy {
	j := &msgs.Joy{
		Axes:    make([]float32, NumAxes),
		Buttons: make([]int32, NumButtons),
	}
	// Released triggers read +1.
	j.Axes[AxisL2] = 1
	j.Axes[AxisR2] = 1
	return j
}
