//go:build !linux

package host

import "net"

// enableBroadcast is a no-op on every platform other than Linux: it
// does not set SO_BROADCAST, so broadcast sends rely on the platform's
// default socket behavior there.
func enableBroadcast(conn *net.UDPConn) error {
	return nil
}
