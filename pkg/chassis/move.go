package chassis

import (
	"math"

	"github.com/pkg/errors"
)

var ErrNonFiniteInput = errors.New("non-finite velocity command")

// MotorPower maps a motor ID to a signed power fraction.
type MotorPower map[int]float64

// Settings holds everything MoveChassis needs.  MaxOutputPower is the dynamic cap; the caller
// overwrites it from the current power limit before every call.
type Settings struct {
	Chassis        Chassis
	MaxInputPower  float64
	MaxOutputPower float64
	MaxRevolution  float64
}

func (s *Settings) Validate() error {
	if err := s.Chassis.Validate(); err != nil {
		return err
	}
	if !(s.MaxInputPower > 0) || !isFinite(s.MaxInputPower) {
		return errors.Errorf("max input power must be positive and finite, got %v", s.MaxInputPower)
	}
	if !(s.MaxOutputPower > 0) || s.MaxOutputPower > 1 {
		return errors.Errorf("max output power must be in (0, 1], got %v", s.MaxOutputPower)
	}
	if s.MaxRevolution < 0 || !isFinite(s.MaxRevolution) {
		return errors.Errorf("max revolution must be non-negative and finite, got %v", s.MaxRevolution)
	}
	return nil
}

// MoveChassis converts a body-frame twist into a power fraction per tire.
//
// linearY is accepted for symmetry with the twist message but has no effect: a two-wheel
// differential chassis has no lateral degree of freedom.
//
// The raw wheel commands are scaled by 1/MaxInputPower and each is then clamped to
// ±MaxOutputPower.  Every tire always appears in the result, including for a zero twist.
func (s *Settings) MoveChassis(linearX, linearY, angularZ float64) (MotorPower, error) {
	if !isFinite(linearX) || !isFinite(linearY) || !isFinite(angularZ) {
		return nil, errors.Wrapf(ErrNonFiniteInput, "x=%v y=%v z=%v", linearX, linearY, angularZ)
	}

	c := s.Chassis
	leftRaw := linearX*c.L.Ratio - angularZ*c.L.Ratio*c.Track
	rightRaw := linearX*c.R.Ratio + angularZ*c.R.Ratio*c.Track

	return MotorPower{
		c.L.ID: s.normalise(leftRaw),
		c.R.ID: s.normalise(rightRaw),
	}, nil
}

func (s *Settings) normalise(raw float64) float64 {
	return clamp(raw/s.MaxInputPower, s.MaxOutputPower)
}

// TargetRPM is the motor speed a power fraction asks for.
func (s *Settings) TargetRPM(power float64) float64 {
	return power * s.MaxRevolution
}

func clamp(v, limit float64) float64 {
	limit = math.Abs(limit)
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	// Avoid handing out -0.
	if v == 0 {
		return 0
	}
	return v
}
