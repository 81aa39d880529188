// Package dirconproto implements the DIRCON frame codec: the fixed
// 6-byte header, message/response-code enums, and sequence-number
// bookkeeping. Grounded on dircon.h/dircon.c in the indBikeSim C
// original; the header is always big-endian on the wire (spec §4.4),
// encoded here with internal/bytesio's BigEndian cursor.
package dirconproto

import (
	"fmt"

	"github.com/srg/dirconsim/internal/bytesio"
)

// Version is the only DIRCON protocol version this emulator speaks.
const Version uint8 = 0x01

// HeaderSize is the fixed size, in bytes, of a DIRCON frame header.
const HeaderSize = 6

// MesgID identifies the operation a frame carries.
type MesgID uint8

const (
	DiscoverServices                       MesgID = 0x01
	DiscoverCharacteristics                 MesgID = 0x02
	ReadCharacteristic                      MesgID = 0x03
	WriteCharacteristic                     MesgID = 0x04
	EnableCharacteristicNotifications        MesgID = 0x05
	UnsolicitedCharacteristicNotification    MesgID = 0x06
	ErrorMesg                               MesgID = 0xFF
)

// Valid reports whether id is one of the six request/notification
// message IDs the emulator accepts on receive (spec §4.9 step 4).
func (id MesgID) Valid() bool { return id >= DiscoverServices && id <= UnsolicitedCharacteristicNotification }

// RespCode is the result code carried in a frame header.
type RespCode uint8

const (
	Success                              RespCode = 0x00
	UnknownMessage                       RespCode = 0x01
	UnexpectedError                      RespCode = 0x02
	ServiceNotFound                      RespCode = 0x03
	CharacteristicNotFound               RespCode = 0x04
	CharacteristicOperationNotSupported  RespCode = 0x05
	CharacteristicWriteFailed            RespCode = 0x06
	UnknownProtocol                      RespCode = 0x07
)

// Frame is a fully decoded DIRCON message: header fields plus payload.
type Frame struct {
	MesgID   MesgID
	SeqNum   uint8
	RespCode RespCode
	Payload  []byte
}

// Encode serializes f into a wire-ready byte slice: 6-byte header
// followed by the payload, mesgLen set to len(Payload).
func (f *Frame) Encode() []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	c := bytesio.NewCursor(buf, bytesio.BigEndian)
	_ = c.WriteU8(Version)
	_ = c.WriteU8(uint8(f.MesgID))
	_ = c.WriteU8(f.SeqNum)
	_ = c.WriteU8(uint8(f.RespCode))
	_ = c.WriteU16(uint16(len(f.Payload)))
	_ = c.WriteBytes(f.Payload)
	return buf
}

// DecodeHeader parses the fixed 6-byte header out of hdr. hdr must be
// exactly HeaderSize bytes; the payload is read separately once its
// length is known (spec §4.9 steps 1-3).
func DecodeHeader(hdr []byte) (version uint8, f Frame, mesgLen uint16, err error) {
	if len(hdr) != HeaderSize {
		return 0, Frame{}, 0, fmt.Errorf("dirconproto: header must be %d bytes, got %d", HeaderSize, len(hdr))
	}
	c := bytesio.NewCursor(hdr, bytesio.BigEndian)
	version, _ = c.ReadU8()
	id, _ := c.ReadU8()
	seq, _ := c.ReadU8()
	rc, _ := c.ReadU8()
	ln, _ := c.ReadU16()
	return version, Frame{MesgID: MesgID(id), SeqNum: seq, RespCode: RespCode(rc)}, ln, nil
}

// Decode parses a complete frame (header + already-read payload) back
// into a Frame. Used by tests exercising the round-trip property.
func Decode(wire []byte) (Frame, error) {
	if len(wire) < HeaderSize {
		return Frame{}, fmt.Errorf("dirconproto: frame too short: %d bytes", len(wire))
	}
	version, f, mesgLen, err := DecodeHeader(wire[:HeaderSize])
	if err != nil {
		return Frame{}, err
	}
	if version != Version {
		return Frame{}, fmt.Errorf("dirconproto: unknown version %d", version)
	}
	rest := wire[HeaderSize:]
	if len(rest) != int(mesgLen) {
		return Frame{}, fmt.Errorf("dirconproto: mesgLen %d does not match payload length %d", mesgLen, len(rest))
	}
	f.Payload = rest
	return f, nil
}
