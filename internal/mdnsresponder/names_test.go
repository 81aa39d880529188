package mdnsresponder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripPlainName(t *testing.T) {
	enc := EncodeName("_wahoo-fitness-tnp._tcp.local")
	name, next, err := DecodeName(enc, 0)
	require.NoError(t, err)
	require.Equal(t, "_wahoo-fitness-tnp._tcp.local", name)
	require.Equal(t, len(enc), next)
}

func TestDecodeNameWithPointer(t *testing.T) {
	msg := EncodeName("local")
	pointerTarget := 0
	ptr := []byte{byte(0xC0 | (pointerTarget >> 8)), byte(pointerTarget & 0xFF)}
	msg = append(msg, ptr...)

	name, _, err := DecodeName(msg, len(msg)-2)
	require.NoError(t, err)
	require.Equal(t, "local", name)
}

func TestDecodeNameRejectsReservedPointerPatterns(t *testing.T) {
	for _, top := range []byte{0x40, 0x80} {
		msg := []byte{top | 0x01, 0x00, 0x00}
		_, _, err := DecodeName(msg, 0)
		require.ErrorIs(t, err, ErrMalformedName)
	}
}

func TestDecodeNameRejectsOverrunLabel(t *testing.T) {
	msg := []byte{0x10, 'a', 'b'} // claims 16 bytes, only 2 present
	_, _, err := DecodeName(msg, 0)
	require.ErrorIs(t, err, ErrMalformedName)
}

func TestEncodeEmptyName(t *testing.T) {
	require.Equal(t, []byte{0x00}, EncodeName(""))
}
