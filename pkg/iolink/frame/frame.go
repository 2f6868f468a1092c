package frame

import (
	"io"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

// Marker is the start byte of every encoded frame.
const Marker byte = 0xa5

// HeaderLen is the number of non-payload bytes in an encoded frame:
// marker, type, length, checksum.
const HeaderLen = 4

// MaxPayload is the largest payload an encoded frame can carry.
const MaxPayload = 255

// Frame is one wire-encoded unit exchanged over the transport.
// Payload must not exceed MaxPayload bytes; longer payloads are a
// caller contract violation.
type Frame struct {
	Type    iolink.MessageType
	Payload []byte
}

// EncodedLen returns the total number of bytes of the encoded form.
func (f *Frame) EncodedLen() int {
	return len(f.Payload) + HeaderLen
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	l := byte(len(f.Payload))
	b := make([]byte, f.EncodedLen())
	b[0], b[1], b[2] = Marker, byte(f.Type), l
	copy(b[3:], f.Payload)
	b[len(b)-1] = checksum(byte(f.Type), l, f.Payload)
	return b
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int, error) {
	return w.Write(f.Bytes())
}

// Encode builds the encoded form of one frame.
func Encode(typ iolink.MessageType, payload []byte) []byte {
	f := Frame{Type: typ, Payload: payload}
	return f.Bytes()
}

// Decode parses the encoded form at the head of b. Extra bytes after
// the frame are ignored; the caller can use EncodedLen to find them.
// Decoding is pure: the same buffer always yields the same result, and
// every malformed input fails with iolink.ErrCommunication.
func Decode(b []byte) (*Frame, error) {
	if len(b) < HeaderLen {
		return nil, iolink.ErrCommunication
	}
	if b[0] != Marker {
		return nil, iolink.ErrCommunication
	}
	typ := iolink.MessageType(b[1])
	if !typ.IsValid() {
		return nil, iolink.ErrCommunication
	}
	l := b[2]
	if len(b) < int(l)+HeaderLen {
		return nil, iolink.ErrCommunication
	}
	payload := make([]byte, l)
	copy(payload, b[3:3+int(l)])
	if b[3+int(l)] != checksum(b[1], l, payload) {
		return nil, iolink.ErrCommunication
	}
	return &Frame{Type: typ, Payload: payload}, nil
}

// checksum is the running XOR of marker, type, length and payload.
func checksum(typ, length byte, payload []byte) byte {
	sum := Marker ^ typ ^ length
	for _, b := range payload {
		sum ^= b
	}
	return sum
}
