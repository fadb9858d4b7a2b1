package motorlink

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// UDPLink sends one datagram per command to the motor controllers.  There is no acknowledgement;
// a lost command is superseded by the next one.
type UDPLink struct {
	conn *net.UDPConn
	dest *net.UDPAddr
}

var _ Interface = (*UDPLink)(nil)

// NewUDP binds ownPort on all interfaces and sends to dest.  The destination may be a broadcast
// address.
func NewUDP(ownPort int, dest string) (*UDPLink, error) {
	destAddr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving motor controller address %q", dest)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: ownPort})
	if err != nil {
		return nil, errors.Wrapf(err, "binding UDP port %d", ownPort)
	}
	if err := enableBroadcast(conn); err != nil {
		fmt.Println("Failed to enable UDP broadcast; ignoring:", err)
	}
	return &UDPLink{
		conn: conn,
		dest: destAddr,
	}, nil
}

func (l *UDPLink) SetPower(motorID int, power float64) error {
	b, err := EncodeFrame(motorID, power)
	if err != nil {
		return err
	}
	_, err = l.conn.WriteToUDP(b, l.dest)
	if err != nil {
		return errors.Wrapf(err, "sending power to motor %d", motorID)
	}
	return nil
}

func (l *UDPLink) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

func (l *UDPLink) Close() error {
	return l.conn.Close()
}
