package rcmode

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/chassis"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/dispatch"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/gamepad"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/powerlimit"
)

type command struct {
	id    int
	power float64
}

type recordingLink struct {
	sent []command
	fail map[int]bool
}

func (r *recordingLink) SetPower(id int, power float64) error {
	if r.fail[id] {
		return errors.Errorf("motor %d unreachable", id)
	}
	r.sent = append(r.sent, command{id, power})
	return nil
}

func (r *recordingLink) Close() error {
	return nil
}

func newMode() (*RCMode, *recordingLink) {
	link := &recordingLink{}
	settings := chassis.Settings{
		Chassis:        chassis.Default,
		MaxInputPower:  160,
		MaxOutputPower: 1,
		MaxRevolution:  5400,
	}
	return New(settings, powerlimit.New(1), 2, link), link
}

func twist(x, z float64) *msgs.Twist {
	return &msgs.Twist{Linear: msgs.Vector3{X: x}, Angular: msgs.Vector3{Z: z}}
}

func joy(buttons ...int) *msgs.Joy {
	j := gamepad.Blank()
	for _, b := range buttons {
		j.Buttons[b] = 1
	}
	return j
}

func TestTwistUsesHalfCapAtStartup(t *testing.T) {
	m, link := newMode()
	if err := m.OnTwist(twist(160, 0)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{0, 0.5}, command{1, 0.5})
}

func TestTriggerRaisesCap(t *testing.T) {
	m, link := newMode()
	if err := m.OnJoy(joy(gamepad.ButtonR2)); err != nil {
		t.Fatal(err)
	}
	link.sent = nil
	if err := m.OnTwist(twist(160, 0)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{0, 1}, command{1, 1})

	// Releasing the trigger drops back to half, regardless of twists in between.
	if err := m.OnTwist(twist(80, 0)); err != nil {
		t.Fatal(err)
	}
	if err := m.OnJoy(joy()); err != nil {
		t.Fatal(err)
	}
	link.sent = nil
	if err := m.OnTwist(twist(160, 0)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{0, 0.5}, command{1, 0.5})
}

func TestTwistScenarioFullCap(t *testing.T) {
	m, link := newMode()
	m.Limit.Set(powerlimit.Full)
	if err := m.OnTwist(twist(80, 0)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{0, 0.5}, command{1, 0.5})
}

func TestNonFiniteTwistSendsNothing(t *testing.T) {
	m, link := newMode()
	err := m.OnTwist(twist(math.NaN(), 0))
	if errors.Cause(err) != chassis.ErrNonFiniteInput {
		t.Fatalf("Expected ErrNonFiniteInput, got %v", err)
	}
	if len(link.sent) != 0 {
		t.Fatalf("Nothing should be sent for a bad twist, got %v", link.sent)
	}
}

func TestAuxCommand(t *testing.T) {
	expectAux(t, AuxForward, gamepad.ButtonCross)
	expectAux(t, AuxReverse, gamepad.ButtonCircle)
	expectAux(t, AuxStop)
	// Cross takes precedence over circle.
	expectAux(t, AuxForward, gamepad.ButtonCross, gamepad.ButtonCircle)
	// The trigger doesn't affect the auxiliary command.
	expectAux(t, AuxReverse, gamepad.ButtonCircle, gamepad.ButtonR2)
}

func TestMalformedJoyChangesNothing(t *testing.T) {
	m, link := newMode()
	m.Limit.Set(powerlimit.Full)
	err := m.OnJoy(&msgs.Joy{Buttons: []int32{1}})
	if errors.Cause(err) != gamepad.ErrMalformed {
		t.Fatalf("Expected ErrMalformed, got %v", err)
	}
	if m.Limit.Level() != powerlimit.Full {
		t.Fatal("Malformed report should leave the power limit alone")
	}
	if len(link.sent) != 0 {
		t.Fatalf("Nothing should be sent for a malformed report, got %v", link.sent)
	}
}

func TestSendFailureDoesNotStopOtherMotors(t *testing.T) {
	m, link := newMode()
	link.fail = map[int]bool{0: true}
	if err := m.OnTwist(twist(40, 0)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{1, 0.25})
}

func TestStopZeroesEverything(t *testing.T) {
	m, link := newMode()
	m.Stop()
	expectSent(t, link, command{0, 0}, command{1, 0}, command{2, 0})
}

func expectAux(t *testing.T, expected float64, buttons ...int) {
	t.Helper()
	m, link := newMode()
	if err := m.OnJoy(joy(buttons...)); err != nil {
		t.Fatal(err)
	}
	expectSent(t, link, command{2, expected})
}

func expectSent(t *testing.T, link *recordingLink, expected ...command) {
	t.Helper()
	if len(link.sent) != len(expected) {
		t.Fatalf("Expected %v to be sent, got %v", expected, link.sent)
	}
	for i := range expected {
		if link.sent[i].id != expected[i].id || math.Abs(link.sent[i].power-expected[i].power) > 1e-9 {
			t.Fatalf("Expected %v to be sent, got %v", expected, link.sent)
		}
	}
}

func TestDispatchedEventsShareLimit(t *testing.T) {
	m, link := newMode()
	twists := make(chan []byte)
	joys := make(chan []byte)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- dispatch.Loop(ctx, m, twists, joys)
	}()

	full := gamepad.Blank()
	full.Buttons[gamepad.ButtonR2] = 1
	fullPayload, _ := msgs.Encode(full)
	twistPayload, _ := msgs.Encode(twist(160, 0))

	joys <- fullPayload
	twists <- twistPayload
	joys <- []byte(`{"buttons":[0]}`) // malformed: must not reset the limit
	twists <- twistPayload
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	expectSent(t, link,
		command{2, AuxStop},
		command{0, 1}, command{1, 1},
		command{0, 1}, command{1, 1},
	)
}
