package motorlink

import (
	"math"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestFrameRoundTrip(t *testing.T) {
	b, err := EncodeFrame(2, -0.75)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != FrameSize {
		t.Fatalf("Expected %d byte frame, got %d", FrameSize, len(b))
	}
	if b[0] != 2 {
		t.Fatalf("Motor ID should be the first byte, got %v", b)
	}
	id, power, err := DecodeFrame(b)
	if err != nil {
		t.Fatal(err)
	}
	if id != 2 || power != -0.75 {
		t.Fatalf("Expected motor 2 at -0.75, got motor %d at %v", id, power)
	}
}

func TestEncodeFrameClamps(t *testing.T) {
	b, err := EncodeFrame(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	_, power, _ := DecodeFrame(b)
	if power != 1 {
		t.Fatalf("Expected power clamped to 1, got %v", power)
	}
}

func TestEncodeFrameRejects(t *testing.T) {
	if _, err := EncodeFrame(256, 0); err == nil {
		t.Error("Expected error for motor ID 256")
	}
	if _, err := EncodeFrame(-1, 0); err == nil {
		t.Error("Expected error for motor ID -1")
	}
	if _, err := EncodeFrame(0, math.NaN()); err == nil {
		t.Error("Expected error for NaN power")
	}
}

func TestDecodeFrameShort(t *testing.T) {
	_, _, err := DecodeFrame([]byte{1, 2, 3})
	if errors.Cause(err) != ErrBadFrame {
		t.Fatalf("Expected ErrBadFrame, got %v", err)
	}
}

func TestUDPLinkSends(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	link, err := NewUDP(0, listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer link.Close()

	if err := link.SetPower(1, 0.5); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 64)
	_ = listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	id, power, err := DecodeFrame(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 || power != 0.5 {
		t.Fatalf("Expected motor 1 at 0.5, got motor %d at %v", id, power)
	}
}

func TestNewUDPBadAddress(t *testing.T) {
	if _, err := NewUDP(0, "not an address"); err == nil {
		t.Fatal("Expected error for bad destination")
	}
}
