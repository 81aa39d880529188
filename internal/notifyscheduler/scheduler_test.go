package notifyscheduler

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/gatt"
	"github.com/srg/dirconsim/internal/handlers"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/uuidreg"
)

func activeServer(t *testing.T) *session.Server {
	srv := session.NewServer("0.0.0.0:36866", nil, session.TelemetryConfig{Power: 200}, session.PowerRange{Max: 1500, Inc: 1})
	c1, c2 := net.Pipe()
	t.Cleanup(func() { _ = c1.Close(); _ = c2.Close() })
	srv.Session.Conn = c1
	return srv
}

func TestTickEmitsOncePerPeriodNotBursting(t *testing.T) {
	srv := activeServer(t)
	now := time.Now()
	payload := append(uuidPayload(gatt.IndoorBikeData), 0x01)
	handlers.HandleEnableCharacteristicNotifications(srv, dirconproto.Frame{Payload: payload}, now)

	// Not due yet.
	require.Nil(t, Tick(srv, nil, now.Add(500*time.Millisecond)))

	// Due at t+1s.
	f := Tick(srv, nil, now.Add(1*time.Second))
	require.NotNil(t, f)

	// The deadline has moved to t+2s, so a call 100ms later does not fire
	// again until the next period.
	require.Nil(t, Tick(srv, nil, now.Add(1100*time.Millisecond)))

	// Way overdue: one call still only advances the deadline by one period.
	f2 := Tick(srv, nil, now.Add(10*time.Second))
	require.NotNil(t, f2)
	require.WithinDuration(t, now.Add(3*time.Second), srv.Session.NextNotificationDeadline, time.Millisecond)
}

func TestTickNoOpWhenDisabled(t *testing.T) {
	srv := activeServer(t)
	require.Nil(t, Tick(srv, nil, time.Now().Add(time.Hour)))
}

func uuidPayload(u16 uuidreg.Uuid16) []byte {
	v := uuidreg.FromU16(u16)
	return v[:]
}
