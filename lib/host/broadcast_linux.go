//go:build linux

package host

import (
	"net"
	"syscall"
)

// enableBroadcast sets SO_BROADCAST on conn's underlying file
// descriptor, mirroring schost_start's setsockopt(..., SO_BROADCAST,
// ...) call in the reference implementation. Go's net package does
// not expose this directly, so it's reached through SyscallConn.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
