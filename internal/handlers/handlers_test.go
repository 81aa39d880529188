package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srg/dirconsim/internal/bytesio"
	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/gatt"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/uuidreg"
)

func newTestServer() *session.Server {
	return session.NewServer("0.0.0.0:36866", nil, session.TelemetryConfig{
		SpeedCentiKph:  3200,
		CadenceHalfRPM: 180,
		Power:          220,
		HeartRate:      142,
	}, session.PowerRange{Min: 0, Max: 1500, Inc: 1})
}

func uuidPayload(u uuidreg.Uuid128) []byte { return u[:] }

// Scenario 1: Service discovery.
func TestDiscoverServices(t *testing.T) {
	srv := newTestServer()
	req := dirconproto.Frame{MesgID: dirconproto.DiscoverServices, SeqNum: 7}
	resp := HandleDiscoverServices(srv, req)

	require.Equal(t, uint8(7), resp.SeqNum)
	require.Equal(t, dirconproto.Success, resp.RespCode)
	require.Equal(t, 32, len(resp.Payload))
	require.Equal(t, uuidreg.FromU16(0x1818)[:], resp.Payload[0:16])
	require.Equal(t, uuidreg.FromU16(0x1826)[:], resp.Payload[16:32])
}

// Scenario 2: Characteristic enumeration on unknown service.
func TestDiscoverCharacteristicsUnknownService(t *testing.T) {
	srv := newTestServer()
	req := dirconproto.Frame{
		MesgID:  dirconproto.DiscoverCharacteristics,
		SeqNum:  8,
		Payload: uuidPayload(uuidreg.FromU16(0xABCD)),
	}
	resp := HandleDiscoverCharacteristics(srv, req)
	require.Equal(t, dirconproto.ServiceNotFound, resp.RespCode)
	require.Equal(t, 0, len(resp.Payload))
}

// Scenario 3: Read Fitness-Machine-Feature.
func TestReadFitnessMachineFeature(t *testing.T) {
	srv := newTestServer()
	req := dirconproto.Frame{
		MesgID:  dirconproto.ReadCharacteristic,
		SeqNum:  9,
		Payload: uuidPayload(uuidreg.FromU16(gatt.FitnessMachineFeature)),
	}
	resp := HandleReadCharacteristic(srv, req)
	require.Equal(t, dirconproto.Success, resp.RespCode)
	require.Equal(t, 24, len(resp.Payload))

	c := bytesio.NewCursor(resp.Payload[16:], bytesio.LittleEndian)
	fmFeat, _ := c.ReadU32()
	tsFeat, _ := c.ReadU32()
	require.Equal(t, uint32(0x00004402), fmFeat)
	require.Equal(t, uint32(0x00002008), tsFeat)
}

func TestReadCharacteristicNotFound(t *testing.T) {
	srv := newTestServer()
	req := dirconproto.Frame{MesgID: dirconproto.ReadCharacteristic, Payload: uuidPayload(uuidreg.FromU16(0xABCD))}
	resp := HandleReadCharacteristic(srv, req)
	require.Equal(t, dirconproto.CharacteristicNotFound, resp.RespCode)
}

func TestReadCharacteristicNotReadable(t *testing.T) {
	srv := newTestServer()
	req := dirconproto.Frame{MesgID: dirconproto.ReadCharacteristic, Payload: uuidPayload(uuidreg.FromU16(gatt.IndoorBikeData))}
	resp := HandleReadCharacteristic(srv, req)
	require.Equal(t, dirconproto.CharacteristicOperationNotSupported, resp.RespCode)
}

func TestEnableIBDNotificationArmsDeadline(t *testing.T) {
	srv := newTestServer()
	now := time.Now()
	payload := append(uuidPayload(uuidreg.FromU16(gatt.IndoorBikeData)), 0x01)
	req := dirconproto.Frame{MesgID: dirconproto.EnableCharacteristicNotifications, SeqNum: 4, Payload: payload}

	resp := HandleEnableCharacteristicNotifications(srv, req, now)
	require.Equal(t, dirconproto.Success, resp.RespCode)
	require.True(t, srv.Session.IBDNotificationsEnabled)
	require.True(t, srv.Session.HasDeadline)
	require.WithinDuration(t, now.Add(NotificationPeriod), srv.Session.NextNotificationDeadline, time.Millisecond)

	sample := CurrentTelemetry(srv, nil)
	ibd := BuildIBDNotification(srv, sample)
	require.Equal(t, uint8(0), ibd.SeqNum) // wraps from 0xFF
	require.Equal(t, dirconproto.UnsolicitedCharacteristicNotification, ibd.MesgID)

	c := bytesio.NewCursor(ibd.Payload[16:], bytesio.LittleEndian)
	flags, _ := c.ReadU16()
	require.Equal(t, uint16(0x0044), flags)
}

func TestDisableIBDClearsDeadline(t *testing.T) {
	srv := newTestServer()
	now := time.Now()
	payloadOn := append(uuidPayload(uuidreg.FromU16(gatt.IndoorBikeData)), 0x01)
	HandleEnableCharacteristicNotifications(srv, dirconproto.Frame{Payload: payloadOn}, now)
	require.True(t, srv.Session.HasDeadline)

	payloadOff := append(uuidPayload(uuidreg.FromU16(gatt.IndoorBikeData)), 0x00)
	HandleEnableCharacteristicNotifications(srv, dirconproto.Frame{Payload: payloadOff}, now)
	require.False(t, srv.Session.HasDeadline)
	require.False(t, srv.Session.IBDNotificationsEnabled)
}

// Scenario 5: FMCP control gate.
func TestFMCPControlGateSequence(t *testing.T) {
	srv := newTestServer()

	setPowerPayload := append(uuidPayload(uuidreg.FromU16(gatt.FitnessMachineControlPt)), dirconproto.FmcpSetTargetPower, 0xC8, 0x00)
	resp := HandleWriteCharacteristic(srv, dirconproto.Frame{MesgID: dirconproto.WriteCharacteristic, Payload: setPowerPayload})
	require.Equal(t, dirconproto.Success, resp.RespCode)
	pending := srv.TakePendingCPResponse()
	require.NotNil(t, pending)
	require.Equal(t, dirconproto.FmcpSetTargetPower, pending.ReqOpCode)
	require.Equal(t, dirconproto.FmcpResultControlNotPermitted, pending.ResultCode)

	reqControlPayload := append(uuidPayload(uuidreg.FromU16(gatt.FitnessMachineControlPt)), dirconproto.FmcpRequestControl)
	HandleWriteCharacteristic(srv, dirconproto.Frame{Payload: reqControlPayload})
	pending = srv.TakePendingCPResponse()
	require.Equal(t, dirconproto.FmcpRequestControl, pending.ReqOpCode)
	require.Equal(t, dirconproto.FmcpResultSuccess, pending.ResultCode)
	require.True(t, srv.ControlGranted)

	HandleWriteCharacteristic(srv, dirconproto.Frame{Payload: setPowerPayload})
	pending = srv.TakePendingCPResponse()
	require.Equal(t, dirconproto.FmcpSetTargetPower, pending.ReqOpCode)
	require.Equal(t, dirconproto.FmcpResultSuccess, pending.ResultCode)
}

func TestActivityInProgressArmsOnAnySuccessfulFMCPWrite(t *testing.T) {
	srv := newTestServer()
	require.False(t, srv.ActivityInProgress)

	reqControlPayload := append(uuidPayload(uuidreg.FromU16(gatt.FitnessMachineControlPt)), dirconproto.FmcpRequestControl)
	HandleWriteCharacteristic(srv, dirconproto.Frame{Payload: reqControlPayload})
	require.True(t, srv.ControlGranted)
	require.True(t, srv.ActivityInProgress, "activity_in_progress should arm on the RequestControl write itself, not only Start/Resume")

	srv.ActivityInProgress = false
	setPowerPayload := append(uuidPayload(uuidreg.FromU16(gatt.FitnessMachineControlPt)), dirconproto.FmcpSetTargetPower, 0xC8, 0x00)
	HandleWriteCharacteristic(srv, dirconproto.Frame{Payload: setPowerPayload})
	require.True(t, srv.ActivityInProgress, "activity_in_progress should arm on any successful FMCP write, not only Start/Resume")
}

func TestWriteUnrecognizedCharacteristicIsUnexpectedError(t *testing.T) {
	srv := newTestServer()
	payload := append(uuidPayload(uuidreg.FromU16(gatt.CyclingPowerControlPoint)), 0x01)
	resp := HandleWriteCharacteristic(srv, dirconproto.Frame{Payload: payload})
	require.Equal(t, dirconproto.UnexpectedError, resp.RespCode)
}

func TestSequenceWrapsMod256(t *testing.T) {
	srv := newTestServer()
	srv.Session.LastTxSeq = 0xFE
	f1 := BuildIBDNotification(srv, CurrentTelemetry(srv, nil))
	f2 := BuildIBDNotification(srv, CurrentTelemetry(srv, nil))
	require.Equal(t, uint8(0xFF), f1.SeqNum)
	require.Equal(t, uint8(0x00), f2.SeqNum)
}
