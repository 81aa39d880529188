package mdnsresponder

import (
	"github.com/srg/dirconsim/internal/bytesio"
)

// RR types this responder ever produces or inspects.
const (
	TypeA   uint16 = 1
	TypePTR uint16 = 12
	TypeHINFO uint16 = 13
	TypeTXT uint16 = 16
	TypeSRV uint16 = 33
	TypeANY uint16 = 255
)

// ClassIN is the only DNS class this responder speaks. CacheFlushBit is
// the top bit of the CLASS field on answer records (spec §4.8).
const (
	ClassIN       uint16 = 1
	CacheFlushBit uint16 = 0x8000
)

// headerFlagQR is bit 15 of the flags field: 0 = query, 1 = response.
const headerFlagQR uint16 = 0x8000

// Header is the 12-byte big-endian DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the QR bit is set.
func (h Header) IsResponse() bool { return h.Flags&headerFlagQR != 0 }

func (h Header) encode(c *bytesio.Cursor) {
	_ = c.WriteU16(h.ID)
	_ = c.WriteU16(h.Flags)
	_ = c.WriteU16(h.QDCount)
	_ = c.WriteU16(h.ANCount)
	_ = c.WriteU16(h.NSCount)
	_ = c.WriteU16(h.ARCount)
}

func decodeHeader(c *bytesio.Cursor) (Header, error) {
	var h Header
	var err error
	if h.ID, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.Flags, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.QDCount, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.ANCount, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.NSCount, err = c.ReadU16(); err != nil {
		return h, err
	}
	if h.ARCount, err = c.ReadU16(); err != nil {
		return h, err
	}
	return h, nil
}

// Question is a single DNS question entry.
type Question struct {
	QName  string
	QType  uint16
	QClass uint16
}

// RR is a single DNS resource record, generic over payload shape. RData
// is pre-encoded by the caller (CraftXxx helpers below).
type RR struct {
	Name       string
	Type       uint16
	Class      uint16 // includes CacheFlushBit when set
	TTL        uint32
	RData      []byte
}

// Message is a fully decoded (or about-to-be-encoded) mDNS packet.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []RR
	Authority []RR
}

// Encode serializes msg to wire bytes. Names are never compressed on
// encode (the responder only needs to decode compression, per spec §4.8).
func (m *Message) Encode() []byte {
	// First pass: compute size.
	size := 12
	for _, q := range m.Questions {
		size += len(EncodeName(q.QName)) + 4
	}
	for _, rr := range append(append([]RR{}, m.Answers...), m.Authority...) {
		size += len(EncodeName(rr.Name)) + 10 + len(rr.RData)
	}

	buf := make([]byte, size)
	c := bytesio.NewCursor(buf, bytesio.BigEndian)
	m.Header.encode(c)
	for _, q := range m.Questions {
		_ = c.WriteBytes(EncodeName(q.QName))
		_ = c.WriteU16(q.QType)
		_ = c.WriteU16(q.QClass)
	}
	for _, rr := range m.Answers {
		encodeRR(c, rr)
	}
	for _, rr := range m.Authority {
		encodeRR(c, rr)
	}
	return buf
}

func encodeRR(c *bytesio.Cursor, rr RR) {
	_ = c.WriteBytes(EncodeName(rr.Name))
	_ = c.WriteU16(rr.Type)
	_ = c.WriteU16(rr.Class)
	_ = c.WriteU32(rr.TTL)
	_ = c.WriteU16(uint16(len(rr.RData)))
	_ = c.WriteBytes(rr.RData)
}

// DecodeMessage parses a received datagram into a Message. Only the
// header and question section are decoded; this responder never needs
// to parse answer/authority sections of an incoming query (spec §4.8
// only reacts to Questions).
func DecodeMessage(raw []byte) (*Message, error) {
	c := bytesio.NewCursor(raw, bytesio.BigEndian)
	h, err := decodeHeader(c)
	if err != nil {
		return nil, err
	}
	msg := &Message{Header: h}
	pos := c.Offset()
	for i := 0; i < int(h.QDCount); i++ {
		name, next, err := DecodeName(raw, pos)
		if err != nil {
			return nil, err
		}
		if next+4 > len(raw) {
			return nil, ErrMalformedName
		}
		qc := bytesio.NewCursor(raw[next:next+4], bytesio.BigEndian)
		qtype, _ := qc.ReadU16()
		qclass, _ := qc.ReadU16()
		msg.Questions = append(msg.Questions, Question{QName: name, QType: qtype, QClass: qclass})
		pos = next + 4
	}
	return msg, nil
}
