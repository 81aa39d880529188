// Package dircondump implements the supplemented --dissect/--hex-dump
// diagnostics (spec §6 names the flags; semantics are undefined there).
// Grounded on dump.c/dump.h in the indBikeSim C original: a
// pretty-printer that names the opcode, decodes known characteristic
// UUIDs, and optionally renders the raw bytes as hex.
package dircondump

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/srg/dirconsim/internal/bytesio"
	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/uuidreg"
)

// MesgIDName returns a human-readable name for a DIRCON message ID.
func MesgIDName(id dirconproto.MesgID) string {
	switch id {
	case dirconproto.DiscoverServices:
		return "DiscoverServices"
	case dirconproto.DiscoverCharacteristics:
		return "DiscoverCharacteristics"
	case dirconproto.ReadCharacteristic:
		return "ReadCharacteristic"
	case dirconproto.WriteCharacteristic:
		return "WriteCharacteristic"
	case dirconproto.EnableCharacteristicNotifications:
		return "EnableCharacteristicNotifications"
	case dirconproto.UnsolicitedCharacteristicNotification:
		return "UnsolicitedCharacteristicNotification"
	case dirconproto.ErrorMesg:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(id))
	}
}

// Dissect logs a decoded frame at Debug level, naming the opcode and
// (when one is present) the leading characteristic UUID, optionally
// followed by a full hex dump.
func Dissect(log *logrus.Logger, direction string, f dirconproto.Frame, hexDump bool) {
	if log == nil {
		return
	}
	fields := logrus.Fields{
		"direction": direction,
		"mesgId":    MesgIDName(f.MesgID),
		"seq":       f.SeqNum,
		"respCode":  f.RespCode,
		"len":       len(f.Payload),
	}
	if len(f.Payload) >= 16 {
		var u uuidreg.Uuid128
		copy(u[:], f.Payload[:16])
		fields["char"] = uuidreg.Name(u)
	}
	entry := log.WithFields(fields)
	if hexDump {
		entry.Debugf("frame payload: %s", bytesio.HexCopy(f.Payload))
	} else {
		entry.Debug("frame")
	}
}

// ShouldDissect reports whether mesgIDFlag (the --dissect flag's raw
// value, e.g. "3" or "all") selects f's message ID.
func ShouldDissect(mesgIDFlag string, id dirconproto.MesgID) bool {
	if mesgIDFlag == "" {
		return false
	}
	if strings.EqualFold(mesgIDFlag, "all") {
		return true
	}
	var want uint8
	if _, err := fmt.Sscanf(mesgIDFlag, "%d", &want); err != nil {
		return false
	}
	return uint8(id) == want
}
