package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

func TestFrameEncode(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"no payload", Frame{Type: iolink.MsgProcessData}, []byte{0xa5, 0x01, 0x00, 0xa4}},
		{"process data", Frame{Type: iolink.MsgProcessData, Payload: []byte{0x00, 0x64}}, []byte{0xa5, 0x01, 0x02, 0x00, 0x64, 0xa5 ^ 0x01 ^ 0x02 ^ 0x00 ^ 0x64}},
		{"parameter", Frame{Type: iolink.MsgParameter, Payload: []byte{0x10}}, []byte{0xa5, 0x02, 0x01, 0x10, 0xa5 ^ 0x02 ^ 0x01 ^ 0x10}},
		{"diagnostic", Frame{Type: iolink.MsgDiagnostic, Payload: []byte{0xff, 0x00, 0xff}}, []byte{0xa5, 0x03, 0x03, 0xff, 0x00, 0xff, 0xa5 ^ 0x03 ^ 0x03}},
		{"event", Frame{Type: iolink.MsgEvent, Payload: []byte{0x7f}}, []byte{0xa5, 0x04, 0x01, 0x7f, 0xa5 ^ 0x04 ^ 0x01 ^ 0x7f}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame.Bytes())
			require.Equal(t, tc.expect, Encode(tc.frame.Type, tc.frame.Payload))
			require.Equal(t, len(tc.expect), tc.frame.EncodedLen())
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, len(tc.expect), n)
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	types := []iolink.MessageType{
		iolink.MsgProcessData,
		iolink.MsgParameter,
		iolink.MsgDiagnostic,
		iolink.MsgEvent,
	}
	for _, typ := range types {
		for size := 0; size <= MaxPayload; size++ {
			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i * 7)
			}
			f, err := Decode(Encode(typ, payload))
			require.NoErrorf(t, err, "type %v size %d", typ, size)
			require.Equal(t, typ, f.Type)
			require.Equal(t, payload, f.Payload)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	valid := Encode(iolink.MsgProcessData, []byte{0x00, 0x64})

	testCases := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"short", []byte{0xa5, 0x01, 0x00}},
		{"bad marker", []byte{0x5a, 0x01, 0x00, 0xa4}},
		{"unknown type", []byte{0xa5, 0x05, 0x00, 0xa5 ^ 0x05}},
		{"zero type", []byte{0xa5, 0x00, 0x00, 0xa5}},
		{"declared length exceeds buffer", []byte{0xa5, 0x01, 0x05, 0x01, 0x02, 0x03}},
		{"bad checksum", []byte{0xa5, 0x01, 0x02, 0x00, 0x64, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode(tc.in)
			require.Equal(t, iolink.ErrCommunication, err)
			require.Nil(t, f)
		})
	}

	t.Run("truncated prefixes", func(t *testing.T) {
		for l := 0; l < len(valid); l++ {
			f, err := Decode(valid[:l])
			require.Equalf(t, iolink.ErrCommunication, err, "prefix of %d bytes", l)
			require.Nil(t, f)
		}
	})

	t.Run("single bit flips", func(t *testing.T) {
		for i := range valid {
			for bit := uint(0); bit < 8; bit++ {
				corrupt := make([]byte, len(valid))
				copy(corrupt, valid)
				corrupt[i] ^= 1 << bit
				_, err := Decode(corrupt)
				require.Equalf(t, iolink.ErrCommunication, err, "byte %d bit %d", i, bit)
			}
		}
	})
}

func TestDecodeTrailingBytes(t *testing.T) {
	encoded := Encode(iolink.MsgParameter, []byte{0x01, 0x02})
	f, err := Decode(append(encoded, 0xde, 0xad))
	require.NoError(t, err)
	require.Equal(t, iolink.MsgParameter, f.Type)
	require.Equal(t, []byte{0x01, 0x02}, f.Payload)
	require.Equal(t, len(encoded), f.EncodedLen())
}

func TestDecodeIdempotent(t *testing.T) {
	encoded := Encode(iolink.MsgDiagnostic, []byte{9, 8, 7})
	first, err := Decode(encoded)
	require.NoError(t, err)
	second, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
