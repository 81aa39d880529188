package mdnsresponder

import "time"

// AdvertiseTimer drives the unsolicited-advertisement schedule (spec
// §4.8): three probes 250ms apart at startup, an advertisement response
// once after the burst, then re-advertisement every 60s.
type AdvertiseTimer struct {
	burstSent int
	lastSent  time.Time
	started   bool
}

// NewAdvertiseTimer returns a timer armed to fire its first probe
// immediately on the next Due check.
func NewAdvertiseTimer() *AdvertiseTimer { return &AdvertiseTimer{} }

// Due reports whether it is time to send the next scheduled message and,
// if so, whether it is the final advertisement-response (as opposed to
// one of the three probes or a periodic re-advertisement).
func (a *AdvertiseTimer) Due(now time.Time) (fire bool, isResponse bool) {
	if !a.started {
		a.started = true
		a.lastSent = now
		return true, false
	}

	if a.burstSent < InitialBurstCount {
		if now.Sub(a.lastSent) >= InitialBurstSpacing {
			a.lastSent = now
			return true, false
		}
		return false, false
	}

	if a.burstSent == InitialBurstCount {
		// Exactly one advertisement-response follows the burst.
		a.lastSent = now
		return true, true
	}

	if now.Sub(a.lastSent) >= AdvertiseInterval {
		a.lastSent = now
		return true, false
	}
	return false, false
}

// RecordSent must be called after a probe/response is actually sent, so
// the timer advances its burst counter exactly once per send.
func (a *AdvertiseTimer) RecordSent() { a.burstSent++ }
