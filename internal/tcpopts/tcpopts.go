// Package tcpopts sets the socket options spec §5/§6 name that the
// standard library's net package does not expose directly: SO_REUSEADDR
// at listen time, and TCP_NODELAY plus per-OS keepalive tuning
// (idle=1s, interval=1s, count=2) on the accepted client connection.
// Grounded on the BLE CLI's use of golang.org/x/sys for low-level
// platform calls (the same dependency backs its PTY and ring-buffer
// plumbing elsewhere in the pack).
package tcpopts

import (
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ListenConfig returns a net.ListenConfig whose Control callback sets
// SO_REUSEADDR before bind.
func ListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}

// Tune applies TCP_NODELAY and the keepalive knobs named in spec §6
// (idle=1s, interval=1s, count=2) to an accepted client connection.
func Tune(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetNoDelay(true); err != nil {
		return err
	}
	if err := tc.SetKeepAlive(true); err != nil {
		return err
	}
	if err := tc.SetKeepAlivePeriod(1 * time.Second); err != nil {
		return err
	}

	rc, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = rc.Control(func(fd uintptr) {
		sockErr = setKeepaliveKnobs(int(fd))
	})
	if err != nil {
		return err
	}
	return sockErr
}
