package powerlimit

import (
	"fmt"
	"math"
	"sync/atomic"
)

type Level int

const (
	Half Level = iota
	Full
)

func (l Level) String() string {
	switch l {
	case Half:
		return "half"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Cap is the dynamic output power cap.  It only ever holds one of two values: half or all of the
// baseline.
//
// The dispatcher goroutine is the only writer.  The value is kept in an atomic so that readers on
// other goroutines (status logging) always see the latest write.
type Cap struct {
	baseline float64
	bits     uint64
}

// New returns a cap at the half level, the state the robot boots in.
func New(baseline float64) *Cap {
	c := &Cap{baseline: baseline}
	c.store(baseline / 2)
	return c
}

// Apply sets the level from the trigger state.  Level-triggered: holding the trigger re-applies
// Full on every event.
func (c *Cap) Apply(triggerPressed bool) {
	if triggerPressed {
		c.Set(Full)
	} else {
		c.Set(Half)
	}
}

func (c *Cap) Set(l Level) {
	if l == Full {
		c.store(c.baseline)
	} else {
		c.store(c.baseline / 2)
	}
}

func (c *Cap) Get() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.bits))
}

func (c *Cap) Level() Level {
	if c.Get() == c.baseline {
		return Full
	}
	return Half
}

func (c *Cap) Baseline() float64 {
	return c.baseline
}

func (c *Cap) store(v float64) {
	atomic.StoreUint64(&c.bits, math.Float64bits(v))
}
