// Package mdnsresponder implements the mDNS responder: query parsing
// with name decompression, and PTR/A/SRV/TXT record crafting for
// unsolicited advertisement and service-browse replies (spec §4.8).
// Grounded on mdns.c/mdns.h in the indBikeSim C original.
package mdnsresponder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedName is returned when a name's label length overruns the
// buffer or an invalid reserved pointer pattern is encountered.
var ErrMalformedName = errors.New("mdnsresponder: malformed name")

const (
	maxLabelLen = 63
	ptrMask     = 0xC0 // top two bits, 0b11
	ptrOffMask  = 0x3F
)

// EncodeName renders a dotted DNS name ("a.b.local") as length-prefixed
// labels terminated by a zero byte. No compression is ever produced by
// this emulator; it only needs to decode the pointers peers might send.
func EncodeName(name string) []byte {
	name = strings.TrimSuffix(name, ".")
	var out []byte
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			if len(label) > maxLabelLen {
				label = label[:maxLabelLen]
			}
			out = append(out, byte(len(label)))
			out = append(out, label...)
		}
	}
	out = append(out, 0)
	return out
}

// DecodeName decodes a name starting at offset within msg (the full
// message, needed to resolve back-pointers). Returns the dotted name
// and the offset immediately following the name in the ORIGINAL
// (non-pointer-followed) stream.
func DecodeName(msg []byte, offset int) (string, int, error) {
	var labels []string
	pos := offset
	consumedPointer := false
	endOffset := -1

	for {
		if pos >= len(msg) {
			return "", 0, ErrMalformedName
		}
		lenByte := msg[pos]

		switch {
		case lenByte == 0:
			pos++
			if endOffset < 0 {
				endOffset = pos
			}
			return strings.Join(labels, "."), endOffset, nil

		case lenByte&ptrMask == ptrMask:
			if pos+1 >= len(msg) {
				return "", 0, ErrMalformedName
			}
			target := int(lenByte&ptrOffMask)<<8 | int(msg[pos+1])
			if !consumedPointer {
				endOffset = pos + 2
				consumedPointer = true
			}
			if target >= len(msg) {
				return "", 0, ErrMalformedName
			}
			// Single-hop pointer: resolve exactly one label, then stop
			// (spec §4.8: "sufficient for this protocol profile").
			label, _, err := decodeOneLabel(msg, target)
			if err != nil {
				return "", 0, err
			}
			labels = append(labels, label)
			return strings.Join(labels, "."), endOffset, nil

		case lenByte&ptrMask == 0x40 || lenByte&ptrMask == 0x80:
			// Reserved patterns 0b01 and 0b10.
			return "", 0, ErrMalformedName

		default:
			labelLen := int(lenByte)
			if pos+1+labelLen > len(msg) {
				return "", 0, ErrMalformedName
			}
			labels = append(labels, string(msg[pos+1:pos+1+labelLen]))
			pos += 1 + labelLen
		}
	}
}

// decodeOneLabel decodes a single length-prefixed label at offset,
// without following further pointers (used to resolve a back-pointer's
// single hop).
func decodeOneLabel(msg []byte, offset int) (string, int, error) {
	if offset >= len(msg) {
		return "", 0, ErrMalformedName
	}
	lenByte := msg[offset]
	if lenByte&ptrMask == ptrMask || lenByte&ptrMask == 0x40 || lenByte&ptrMask == 0x80 {
		return "", 0, fmt.Errorf("%w: nested pointer beyond single hop", ErrMalformedName)
	}
	labelLen := int(lenByte)
	if offset+1+labelLen > len(msg) {
		return "", 0, ErrMalformedName
	}
	return string(msg[offset+1 : offset+1+labelLen]), offset + 1 + labelLen, nil
}
