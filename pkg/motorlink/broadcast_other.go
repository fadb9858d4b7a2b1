//go:build !unix

package motorlink

import "net"

func enableBroadcast(conn *net.UDPConn) error {
	return nil
}
