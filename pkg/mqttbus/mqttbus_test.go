package mqttbus

import (
	"testing"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestHandlerCopiesPayload(t *testing.T) {
	ch := make(chan []byte, 1)
	raw := []byte(`{"linear":{"x":1}}`)
	handler(ch)(nil, &fakeMessage{topic: "cmd_vel2_2_2", payload: raw})

	// The client may reuse its buffer once the handler returns.
	raw[2] = 'X'

	got := <-ch
	if string(got) != `{"linear":{"x":1}}` {
		t.Fatalf("Payload not copied: %s", got)
	}
}

func TestHandlerPreservesOrder(t *testing.T) {
	ch := make(chan []byte, 3)
	h := handler(ch)
	for _, p := range []string{"1", "2", "3"} {
		h(nil, &fakeMessage{topic: "rjoy2_2_2", payload: []byte(p)})
	}
	for _, expected := range []string{"1", "2", "3"} {
		if got := string(<-ch); got != expected {
			t.Fatalf("Expected %s, got %s", expected, got)
		}
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	ch := make(chan []byte, 1)
	if !deliver(ch, "t", []byte("a")) {
		t.Fatal("First payload should be delivered")
	}
	if deliver(ch, "t", []byte("b")) {
		t.Fatal("Payload should be dropped while the consumer is behind")
	}
	if got := string(<-ch); got != "a" {
		t.Fatalf("Expected the first payload to survive, got %s", got)
	}
}

func TestSubscribeRegisters(t *testing.T) {
	b := New(Options{Broker: "tcp://127.0.0.1:1", ClientID: "test"})
	twists := make(chan []byte)
	b.Subscribe("cmd_vel2_2_2", twists)
	if len(b.subs) != 1 {
		t.Fatalf("Expected one subscription, got %v", b.subs)
	}
}
