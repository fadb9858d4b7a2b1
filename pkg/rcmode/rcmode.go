package rcmode

import (
	"fmt"
	"log"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/chassis"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/gamepad"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/motorlink"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/powerlimit"
)

// Auxiliary actuator commands.
const (
	AuxForward = 1.0
	AuxReverse = -1.0
	AuxStop    = 0.0
)

// RCMode turns twists and gamepad reports into motor commands.  OnTwist and OnJoy must only be
// called from one goroutine at a time; the dispatcher guarantees that.
type RCMode struct {
	Settings   chassis.Settings
	Limit      *powerlimit.Cap
	AuxMotorID int

	motors motorlink.Interface
	debug  bool
}

func New(settings chassis.Settings, limit *powerlimit.Cap, auxMotorID int, motors motorlink.Interface) *RCMode {
	return &RCMode{
		Settings:   settings,
		Limit:      limit,
		AuxMotorID: auxMotorID,
		motors:     motors,
	}
}

func (m *RCMode) Name() string {
	return "RC mode"
}

// SetDebug enables a log line per drive command.
func (m *RCMode) SetDebug(debug bool) {
	m.debug = debug
}

// OnTwist drives the wheels.  A twist that can't be converted is rejected before anything is sent.
func (m *RCMode) OnTwist(t *msgs.Twist) error {
	m.Settings.MaxOutputPower = m.Limit.Get()
	motorPower, err := m.Settings.MoveChassis(t.Linear.X, t.Linear.Y, t.Angular.Z)
	if err != nil {
		return err
	}

	ids := maps.Keys(motorPower)
	slices.Sort(ids)
	for _, id := range ids {
		if m.debug {
			fmt.Printf("Motor %d: power=%.3f (%.0frpm, cap %v)\n",
				id, motorPower[id], m.Settings.TargetRPM(motorPower[id]), m.Limit.Level())
		}
		m.send(id, motorPower[id])
	}
	return nil
}

// OnJoy updates the power limit from R2 and drives the auxiliary actuator from cross/circle.
// A report that can't be decoded changes nothing.
func (m *RCMode) OnJoy(j *msgs.Joy) error {
	ds4, err := gamepad.Decode(j)
	if err != nil {
		return err
	}

	before := m.Limit.Level()
	m.Limit.Apply(ds4.PressedR2())
	if after := m.Limit.Level(); after != before {
		fmt.Println("Power limit:", after)
	}

	m.send(m.AuxMotorID, AuxCommand(ds4))
	return nil
}

// AuxCommand is the auxiliary actuator decision table: cross wins over circle.
func AuxCommand(ds4 *gamepad.DualShock4) float64 {
	switch {
	case ds4.PressedCross():
		return AuxForward
	case ds4.PressedCircle():
		return AuxReverse
	default:
		return AuxStop
	}
}

// Stop zeroes every motor this mode drives.
func (m *RCMode) Stop() {
	for _, t := range m.Settings.Chassis.Tires() {
		m.send(t.ID, 0)
	}
	m.send(m.AuxMotorID, AuxStop)
}

func (m *RCMode) send(id int, power float64) {
	// Fire and forget; the next event supersedes a lost command.
	if err := m.motors.SetPower(id, power); err != nil {
		log.Printf("Failed to set power for motor %d: %v", id, err)
	}
}
