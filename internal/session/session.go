// Package session holds the emulator's top-level mutable state: the
// single active DirconSession and the Server aggregate that owns it,
// the GATT table, telemetry configuration, and mDNS bookkeeping.
//
// Grounded on the DirconSession/Server structs in server.h from the
// indBikeSim C original, re-expressed per spec §9's "Session
// back-pointer" design note: a single explicit context value instead of
// a raw pointer threaded through every call. Everything here is mutated
// exclusively from the event-loop goroutine (spec §5); there is no
// internal locking because there is no concurrent access.
package session

import (
	"net"
	"time"

	"github.com/srg/dirconsim/internal/gatt"
)

// TelemetryConfig holds the configured constant telemetry values used
// whenever the activity-record queue is empty or no activity is loaded.
type TelemetryConfig struct {
	SpeedCentiKph uint16 // kph x 100
	CadenceHalfRPM uint16 // rpm x 2 (FTMS half-rpm unit)
	Power         uint16 // watts
	HeartRate     uint8  // bpm
}

// PowerRange is the supported power range advertised by
// Supported-Power-Range (spec §4.5.3), config-driven.
type PowerRange struct {
	Min int16
	Max int16
	Inc uint16
}

// PendingCPResponse is the single scheduled follow-up notification a
// successful FMCP write arms; cleared after it is emitted (spec §3).
type PendingCPResponse struct {
	ReqOpCode  uint8
	ResultCode uint8
}

// DirconSession is the one active client session. Initial zero value
// matches spec §3 except LastTxSeq, which callers must set to 0xFF.
type DirconSession struct {
	Conn       net.Conn
	LocalAddr  net.Addr
	RemoteAddr net.Addr

	LastTxSeq uint8
	TxCount   uint64
	RxCount   uint64

	IBDNotificationsEnabled   bool
	FMCPNotificationsEnabled  bool
	StatusNotificationsEnabled bool
	TrainingNotificationsEnabled bool

	NextNotificationDeadline time.Time
	HasDeadline              bool

	ResponsePending bool
}

// NewDirconSession returns a session in its documented initial state:
// all counters zero, LastTxSeq = 0xFF so the first emitted frame uses
// seq 0 after pre-increment, both booleans false, deadline unset.
func NewDirconSession() *DirconSession {
	return &DirconSession{LastTxSeq: 0xFF}
}

// Active reports whether a client is currently connected.
func (s *DirconSession) Active() bool { return s.Conn != nil }

// NextSeq pre-increments and returns the next server-initiated sequence
// number, wrapping mod 256 (spec invariant).
func (s *DirconSession) NextSeq() uint8 {
	s.LastTxSeq++
	return s.LastTxSeq
}

// ArmDeadline sets the notification deadline to now+period if it is not
// already set (spec §4.5.5: "on enable, if session deadline is unset,
// arm it to now + 1s").
func (s *DirconSession) ArmDeadline(now time.Time, period time.Duration) {
	if !s.HasDeadline {
		s.NextNotificationDeadline = now.Add(period)
		s.HasDeadline = true
	}
}

// ClearDeadline unsets the notification deadline.
func (s *DirconSession) ClearDeadline() {
	s.HasDeadline = false
	s.NextNotificationDeadline = time.Time{}
}

// Reset restores the session to its post-connection-drop state (spec §4.9
// "Connection-drop cleanup"): clear deadlines, clear both enable flags,
// reset counters, zero the cached addresses, close and null the socket.
func (s *DirconSession) Reset() {
	if s.Conn != nil {
		_ = s.Conn.Close()
	}
	*s = *NewDirconSession()
}

// Server is the top-level state aggregate (spec §3).
type Server struct {
	ListenAddr string
	MACAddr    net.HardwareAddr

	GattTable *gatt.Table
	Session   *DirconSession

	ConfigTelemetry     TelemetryConfig
	SupportedPowerRange PowerRange

	ControlGranted      bool
	ActivityInProgress  bool
	PendingCPResponse   *PendingCPResponse

	RxMDNSCount uint64
	TxMDNSCount uint64

	BaseTime time.Time
}

// NewServer builds a Server with a fresh GATT table and session, and
// the given telemetry/power-range configuration.
func NewServer(listenAddr string, mac net.HardwareAddr, telemetry TelemetryConfig, powerRange PowerRange) *Server {
	return &Server{
		ListenAddr:          listenAddr,
		MACAddr:             mac,
		GattTable:           gatt.Build(),
		Session:             NewDirconSession(),
		ConfigTelemetry:     telemetry,
		SupportedPowerRange: powerRange,
		BaseTime:            time.Now(),
	}
}

// SchedulePendingCPResponse arms the one-shot FMCP follow-up
// notification (spec §4.5.4).
func (srv *Server) SchedulePendingCPResponse(reqOpCode, resultCode uint8) {
	srv.PendingCPResponse = &PendingCPResponse{ReqOpCode: reqOpCode, ResultCode: resultCode}
}

// TakePendingCPResponse returns and clears the scheduled FMCP
// notification, if any (spec invariant: cleared after at most one
// unsolicited notification).
func (srv *Server) TakePendingCPResponse() *PendingCPResponse {
	p := srv.PendingCPResponse
	srv.PendingCPResponse = nil
	return p
}

// DropSession runs the connection-drop cleanup described in spec §4.9.
func (srv *Server) DropSession() {
	srv.Session.Reset()
}
