// Package handlers implements the six DIRCON opcode handlers (spec
// §4.5) plus the notification body builders they schedule. Each
// handler takes the owning *session.Server explicitly (spec §9 design
// note: "pass a single explicit context value... avoid global mutable
// singletons") rather than a raw back-pointer.
//
// Grounded on the dirconProcXxxMesg family of functions in dircon.c
// from the indBikeSim C original; opcode dispatch there uses a
// function-pointer table, re-expressed here as a plain switch over
// dirconproto.MesgID (spec §9: "the table is not an interface
// boundary, only an indexing device").
package handlers

import (
	"time"

	"github.com/srg/dirconsim/internal/bytesio"
	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/gatt"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/telemetry"
	"github.com/srg/dirconsim/internal/uuidreg"
)

// NotificationPeriod is the fixed 1 Hz notification cadence (spec §4.7).
const NotificationPeriod = 1 * time.Second

func errorResponse(req dirconproto.Frame, rc dirconproto.RespCode) *dirconproto.Frame {
	return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: rc}
}

func readUUID128(c *bytesio.Cursor) (uuidreg.Uuid128, error) {
	b, err := c.ReadBytes(16)
	if err != nil {
		return uuidreg.Uuid128{}, err
	}
	var u uuidreg.Uuid128
	copy(u[:], b)
	return u, nil
}

func writeUUID128(c *bytesio.Cursor, u uuidreg.Uuid128) { _ = c.WriteBytes(u[:]) }

// HandleDiscoverServices implements spec §4.5.1. Never fails.
func HandleDiscoverServices(srv *session.Server, req dirconproto.Frame) *dirconproto.Frame {
	svcs := srv.GattTable.Services()
	payload := make([]byte, 16*len(svcs))
	c := bytesio.NewCursor(payload, bytesio.BigEndian)
	for _, s := range svcs {
		writeUUID128(c, s.UUID128)
	}
	return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.Success, Payload: payload}
}

// HandleDiscoverCharacteristics implements spec §4.5.2.
func HandleDiscoverCharacteristics(srv *session.Server, req dirconproto.Frame) *dirconproto.Frame {
	rc := bytesio.NewCursor(req.Payload, bytesio.BigEndian)
	svcUUID, err := readUUID128(rc)
	if err != nil {
		return errorResponse(req, dirconproto.ServiceNotFound)
	}

	svc := srv.GattTable.FindService(svcUUID)
	if svc == nil {
		return errorResponse(req, dirconproto.ServiceNotFound)
	}

	chars := svc.Characteristics()
	payload := make([]byte, 16+17*len(chars))
	wc := bytesio.NewCursor(payload, bytesio.BigEndian)
	writeUUID128(wc, svcUUID)
	for _, ch := range chars {
		writeUUID128(wc, ch.UUID128)
		_ = wc.WriteU8(ch.DirconPropertyByte())
	}
	return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.Success, Payload: payload}
}

// HandleReadCharacteristic implements spec §4.5.3.
func HandleReadCharacteristic(srv *session.Server, req dirconproto.Frame) *dirconproto.Frame {
	rc := bytesio.NewCursor(req.Payload, bytesio.BigEndian)
	charUUID, err := readUUID128(rc)
	if err != nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}

	_, ch := srv.GattTable.FindCharacteristic(charUUID)
	if ch == nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	if !ch.CanRead() {
		return errorResponse(req, dirconproto.CharacteristicOperationNotSupported)
	}

	value := readValueFor(srv, ch)
	payload := make([]byte, 16+len(value))
	wc := bytesio.NewCursor(payload, bytesio.BigEndian)
	writeUUID128(wc, charUUID)
	_ = wc.WriteBytes(value)

	return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.Success, Payload: payload}
}

// readValueFor produces the current value for a readable characteristic.
func readValueFor(srv *session.Server, ch *gatt.Characteristic) []byte {
	switch ch.UUID16 {
	case gatt.FitnessMachineFeature:
		buf := make([]byte, 8)
		c := bytesio.NewCursor(buf, bytesio.LittleEndian)
		fmFeat := dirconproto.FmFeatureCadence | dirconproto.FmFeatureHeartRate | dirconproto.FmFeaturePowerMeasure
		tsFeat := dirconproto.TsFeaturePower | dirconproto.TsFeatureIndoorBikeSim
		_ = c.WriteU32(fmFeat)
		_ = c.WriteU32(tsFeat)
		return buf
	case gatt.SupportedPowerRange:
		buf := make([]byte, 6)
		c := bytesio.NewCursor(buf, bytesio.LittleEndian)
		_ = c.WriteI16(srv.SupportedPowerRange.Min)
		_ = c.WriteI16(srv.SupportedPowerRange.Max)
		_ = c.WriteU16(srv.SupportedPowerRange.Inc)
		return buf
	default:
		// Other readable characteristics are TBD placeholders (spec §4.5.3).
		return nil
	}
}

// HandleWriteCharacteristic implements spec §4.5.4. On a successful FMCP
// write, srv.PendingCPResponse is armed for the caller to flush after
// sending this response (spec §4.5.7 step 5).
func HandleWriteCharacteristic(srv *session.Server, req dirconproto.Frame) *dirconproto.Frame {
	rc := bytesio.NewCursor(req.Payload, bytesio.BigEndian)
	charUUID, err := readUUID128(rc)
	if err != nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	value, _ := rc.ReadBytes(rc.Len())

	_, ch := srv.GattTable.FindCharacteristic(charUUID)
	if ch == nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	if !ch.CanWrite() {
		return errorResponse(req, dirconproto.CharacteristicOperationNotSupported)
	}

	resp := &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.Success, Payload: charUUID[:]}

	if ch.UUID16 != gatt.FitnessMachineControlPt {
		// Only FMCP has defined write semantics; everything else writable
		// in this table (the Cycling Power Control Point) is unrecognized.
		resp.RespCode = dirconproto.UnexpectedError
		return resp
	}

	if len(value) < 1 {
		resp.RespCode = dirconproto.CharacteristicWriteFailed
		return resp
	}
	opCode := value[0]

	resultCode := applyFMCPWrite(srv, opCode)
	srv.SchedulePendingCPResponse(opCode, resultCode)
	return resp
}

// applyFMCPWrite mutates Server state per the FMCP opcode table (spec
// §4.5.4) and returns the result code for the scheduled notification.
// Per spec §4.6, any successful FMCP write arms activity_in_progress —
// the transition is not tied to Start/Resume specifically.
func applyFMCPWrite(srv *session.Server, opCode uint8) uint8 {
	if opCode != dirconproto.FmcpRequestControl && !srv.ControlGranted {
		return dirconproto.FmcpResultControlNotPermitted
	}

	var result uint8
	switch opCode {
	case dirconproto.FmcpRequestControl:
		srv.ControlGranted = true
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpReset:
		srv.ControlGranted = false
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpSetTargetPower:
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpStartOrResume:
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpStopOrPause:
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpSetIndoorBikeSimParms:
		result = dirconproto.FmcpResultSuccess
	case dirconproto.FmcpSetWheelCircumference:
		result = dirconproto.FmcpResultSuccess
	default:
		return dirconproto.FmcpResultOpCodeNotSupported
	}

	if result == dirconproto.FmcpResultSuccess {
		srv.ActivityInProgress = true
	}
	return result
}

// HandleEnableCharacteristicNotifications implements spec §4.5.5.
func HandleEnableCharacteristicNotifications(srv *session.Server, req dirconproto.Frame, now time.Time) *dirconproto.Frame {
	rc := bytesio.NewCursor(req.Payload, bytesio.BigEndian)
	charUUID, err := readUUID128(rc)
	if err != nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	enableByte, err := rc.ReadU8()
	if err != nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	enable := enableByte&0x01 != 0

	_, ch := srv.GattTable.FindCharacteristic(charUUID)
	if ch == nil {
		return errorResponse(req, dirconproto.CharacteristicNotFound)
	}
	if !ch.CanNotify() {
		return errorResponse(req, dirconproto.CharacteristicOperationNotSupported)
	}

	switch ch.UUID16 {
	case gatt.IndoorBikeData:
		srv.Session.IBDNotificationsEnabled = enable
		if enable {
			srv.Session.ArmDeadline(now, NotificationPeriod)
		} else {
			srv.Session.ClearDeadline()
		}
	case gatt.FitnessMachineControlPt:
		srv.Session.FMCPNotificationsEnabled = enable
	case gatt.FitnessMachineStatus:
		srv.Session.StatusNotificationsEnabled = enable
	case gatt.TrainingStatus:
		srv.Session.TrainingNotificationsEnabled = enable
	}

	payload := make([]byte, 17)
	wc := bytesio.NewCursor(payload, bytesio.BigEndian)
	writeUUID128(wc, charUUID)
	_ = wc.WriteU8(enableByte)

	return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.Success, Payload: payload}
}

// CurrentTelemetry resolves the sample to report on the next IBD
// notification: the head of the activity queue if one is in progress
// and non-empty, otherwise the configured constants (spec §4.6).
func CurrentTelemetry(srv *session.Server, queue telemetry.Source) telemetry.Sample {
	if srv.ActivityInProgress && queue != nil && queue.Len() > 0 {
		s, ok := queue.Next()
		if ok {
			return s
		}
	}
	return telemetry.Sample{
		SpeedCentiKph:  srv.ConfigTelemetry.SpeedCentiKph,
		CadenceHalfRPM: srv.ConfigTelemetry.CadenceHalfRPM,
		Power:          srv.ConfigTelemetry.Power,
		HeartRate:      srv.ConfigTelemetry.HeartRate,
	}
}

// BuildIBDNotification produces the unsolicited Indoor-Bike-Data
// notification body (spec §4.5.6).
func BuildIBDNotification(srv *session.Server, sample telemetry.Sample) *dirconproto.Frame {
	charUUID := uuidreg.FromU16(gatt.IndoorBikeData)
	flags := dirconproto.IbdFlagInstantaneousCadence | dirconproto.IbdFlagInstantaneousPower

	body := make([]byte, 9)
	bc := bytesio.NewCursor(body, bytesio.LittleEndian)
	_ = bc.WriteU16(flags)
	_ = bc.WriteU16(sample.SpeedCentiKph)
	_ = bc.WriteU16(sample.CadenceHalfRPM)
	_ = bc.WriteU16(sample.Power)
	_ = bc.WriteU8(sample.HeartRate)

	payload := make([]byte, 16+len(body))
	wc := bytesio.NewCursor(payload, bytesio.BigEndian)
	writeUUID128(wc, charUUID)
	_ = wc.WriteBytes(body)

	seq := srv.Session.NextSeq()
	return &dirconproto.Frame{
		MesgID:   dirconproto.UnsolicitedCharacteristicNotification,
		SeqNum:   seq,
		RespCode: dirconproto.Success,
		Payload:  payload,
	}
}

// BuildFMCPNotification produces the scheduled FMCP control-point reply
// notification (spec §4.5.4/§4.5.6): {responseCode=0x80, reqOpCode, resultCode}.
func BuildFMCPNotification(srv *session.Server, pending *session.PendingCPResponse) *dirconproto.Frame {
	charUUID := uuidreg.FromU16(gatt.FitnessMachineControlPt)
	body := []byte{dirconproto.FmcpResponseCode, pending.ReqOpCode, pending.ResultCode}

	payload := make([]byte, 16+len(body))
	wc := bytesio.NewCursor(payload, bytesio.BigEndian)
	writeUUID128(wc, charUUID)
	_ = wc.WriteBytes(body)

	seq := srv.Session.NextSeq()
	return &dirconproto.Frame{
		MesgID:   dirconproto.UnsolicitedCharacteristicNotification,
		SeqNum:   seq,
		RespCode: dirconproto.Success,
		Payload:  payload,
	}
}
