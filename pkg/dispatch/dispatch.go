// Package dispatch serialises the twist and gamepad streams onto one goroutine.
//
// The loop waits until either stream has a payload, decodes it and runs the matching handler to
// completion before waiting again, so handlers never run concurrently and need no locking.
package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
)

type Source uint8

const (
	SourceTwist Source = iota + 1
	SourceJoy
)

func (s Source) String() string {
	switch s {
	case SourceTwist:
		return "twist"
	case SourceJoy:
		return "joy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Event is one payload from one of the two streams.
type Event struct {
	Source  Source
	Payload []byte
}

// Handler must not block waiting for further input.
type Handler interface {
	OnTwist(t *msgs.Twist) error
	OnJoy(j *msgs.Joy) error
}

var ErrStreamClosed = errors.New("input stream closed")

// Next blocks until a payload is available on either stream.  When both are ready Go's select
// picks one at random, so neither stream can starve the other.
func Next(ctx context.Context, twists, joys <-chan []byte) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case p, ok := <-twists:
		if !ok {
			return Event{}, errors.Wrap(ErrStreamClosed, SourceTwist.String())
		}
		return Event{Source: SourceTwist, Payload: p}, nil
	case p, ok := <-joys:
		if !ok {
			return Event{}, errors.Wrap(ErrStreamClosed, SourceJoy.String())
		}
		return Event{Source: SourceJoy, Payload: p}, nil
	}
}

// Dispatch decodes the event and runs its handler.  Any failure only affects this event.
func Dispatch(h Handler, ev Event) error {
	switch ev.Source {
	case SourceTwist:
		t, err := msgs.DecodeTwist(ev.Payload)
		if err != nil {
			return err
		}
		return errors.Wrapf(h.OnTwist(t), "handling %v", t)
	case SourceJoy:
		j, err := msgs.DecodeJoy(ev.Payload)
		if err != nil {
			return err
		}
		return errors.Wrap(h.OnJoy(j), "handling joy")
	default:
		return errors.Errorf("event from unknown source %v", ev.Source)
	}
}

// Loop runs until the context is cancelled or one of the streams closes.  Per-event errors are
// logged and the event skipped.
func Loop(ctx context.Context, h Handler, twists, joys <-chan []byte) error {
	for {
		ev, err := Next(ctx, twists, joys)
		if err != nil {
			return err
		}
		if err := Dispatch(h, ev); err != nil {
			log.Printf("Skipping %v event: %v", ev.Source, err)
		}
	}
}
