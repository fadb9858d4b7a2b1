// Package msgs holds the messages the control node exchanges over the bus.  They keep the shape
// of the ROS geometry_msgs/Twist and sensor_msgs/Joy messages so existing teleop tooling can
// publish them as JSON.
package msgs

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

func (t *Twist) String() string {
	return fmt.Sprintf("twist(x=%.2f y=%.2f z=%.2f)", t.Linear.X, t.Linear.Y, t.Angular.Z)
}

type Joy struct {
	Axes    []float32 `json:"axes"`
	Buttons []int32   `json:"buttons"`
}

func (j *Joy) String() string {
	return fmt.Sprintf("joy(axes=%v buttons=%v)", j.Axes, j.Buttons)
}

func DecodeTwist(payload []byte) (*Twist, error) {
	var t Twist
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, errors.Wrap(err, "decoding twist")
	}
	return &t, nil
}

func DecodeJoy(payload []byte) (*Joy, error) {
	var j Joy
	if err := json.Unmarshal(payload, &j); err != nil {
		return nil, errors.Wrap(err, "decoding joy")
	}
	return &j, nil
}

func Encode(msg interface{}) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding message")
	}
	return b, nil
}
