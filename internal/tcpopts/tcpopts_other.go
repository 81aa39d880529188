//go:build !linux

package tcpopts

// setKeepaliveKnobs is a no-op on platforms where the fine-grained
// TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT knobs aren't available via
// golang.org/x/sys/unix; SetKeepAlivePeriod in Tune already covers the
// portable part of spec §6's keepalive tuning.
func setKeepaliveKnobs(fd int) error { return nil }
