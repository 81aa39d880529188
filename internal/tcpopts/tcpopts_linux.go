//go:build linux

package tcpopts

import "golang.org/x/sys/unix"

// setKeepaliveKnobs sets the per-OS-available keepalive knobs named in
// spec §5: idle=1s, interval=1s, count=2 probes before the peer is
// declared silent.
func setKeepaliveKnobs(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 1); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 1); err != nil {
		return err
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 2)
}
