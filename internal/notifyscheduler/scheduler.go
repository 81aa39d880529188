// Package notifyscheduler implements the single cooperative 1 Hz timer
// per session (spec §4.7): on each event-loop iteration, if the
// deadline has passed and the relevant enable flag is set, emit one
// notification and advance the deadline by exactly one period. Missed
// ticks do not catch up by bursting.
package notifyscheduler

import (
	"time"

	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/handlers"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/telemetry"
)

// Period is the fixed notification cadence.
const Period = handlers.NotificationPeriod

// Tick checks the IBD deadline against now and, if due and notifications
// remain enabled, returns the notification frame to send and advances
// the session's deadline by a single period. Returns nil if nothing is due.
func Tick(srv *session.Server, queue telemetry.Source, now time.Time) *dirconproto.Frame {
	if !srv.Session.Active() || !srv.Session.IBDNotificationsEnabled || !srv.Session.HasDeadline {
		return nil
	}
	if now.Before(srv.Session.NextNotificationDeadline) {
		return nil
	}

	sample := handlers.CurrentTelemetry(srv, queue)
	frame := handlers.BuildIBDNotification(srv, sample)

	// Advance by exactly one period; sustained lag re-aligns naturally
	// rather than bursting missed ticks.
	srv.Session.NextNotificationDeadline = srv.Session.NextNotificationDeadline.Add(Period)

	return frame
}
