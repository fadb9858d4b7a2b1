package chassis

import (
	"math"

	"github.com/pkg/errors"
)

// Tire is one drive wheel: the motor that turns it and its gear ratio.
type Tire struct {
	ID    int     `yaml:"id" toml:"id"`
	Ratio float64 `yaml:"ratio" toml:"ratio"`
}

// Chassis describes the two drive wheels of a differential-drive robot.  Both wheels sit on the
// rotation axis so a turn is just the two wheels running in opposite directions.
type Chassis struct {
	L Tire `yaml:"left" toml:"left"`
	R Tire `yaml:"right" toml:"right"`

	// Track scales the angular component relative to the linear one.  1.0 means a unit of angular
	// velocity asks for the same wheel power as a unit of linear velocity.
	Track float64 `yaml:"track" toml:"track"`
}

// Default is the robo2-2-2 chassis: left motor 0, right motor 1, direct drive.
var Default = Chassis{
	L:     Tire{ID: 0, Ratio: 1},
	R:     Tire{ID: 1, Ratio: 1},
	Track: 1,
}

func (c Chassis) Tires() []Tire {
	return []Tire{c.L, c.R}
}

func (c Chassis) Validate() error {
	for _, t := range c.Tires() {
		if t.Ratio == 0 || !isFinite(t.Ratio) {
			return errors.Errorf("tire %d: ratio must be non-zero and finite, got %v", t.ID, t.Ratio)
		}
	}
	if c.L.ID == c.R.ID {
		return errors.Errorf("left and right tires share motor ID %d", c.L.ID)
	}
	if !(c.Track > 0) || !isFinite(c.Track) {
		return errors.Errorf("track must be positive and finite, got %v", c.Track)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
