package iolink

import "fmt"

// MessageType identifies the kind of payload carried by a frame.
// Values are the on-wire type codes.
type MessageType byte

// Message types
const (
	// MsgProcessData is cyclic process data exchange.
	MsgProcessData MessageType = 0x01
	// MsgParameter is acyclic parameter access.
	MsgParameter MessageType = 0x02
	// MsgDiagnostic is diagnostic information.
	MsgDiagnostic MessageType = 0x03
	// MsgEvent is an unsolicited event notification.
	MsgEvent MessageType = 0x04
)

// IsValid checks if it's a known message type code.
func (t MessageType) IsValid() bool {
	return t >= MsgProcessData && t <= MsgEvent
}

// String implements fmt.Stringer.
func (t MessageType) String() string {
	switch t {
	case MsgProcessData:
		return "process-data"
	case MsgParameter:
		return "parameter"
	case MsgDiagnostic:
		return "diagnostic"
	case MsgEvent:
		return "event"
	}
	return fmt.Sprintf("unknown(%#02x)", byte(t))
}

// OperationMode is the communication mode of a port.
type OperationMode int

// Operation modes
const (
	// ModeSIO is standard digital I/O, no framed communication.
	ModeSIO OperationMode = iota
	// ModeCOM1 communicates at 4.8 kbaud.
	ModeCOM1
	// ModeCOM2 communicates at 38.4 kbaud.
	ModeCOM2
	// ModeCOM3 communicates at 230.4 kbaud.
	ModeCOM3
)

// BaudRate returns the line speed of the mode, 0 for SIO.
func (m OperationMode) BaudRate() int {
	switch m {
	case ModeCOM1:
		return 4800
	case ModeCOM2:
		return 38400
	case ModeCOM3:
		return 230400
	}
	return 0
}

// String implements fmt.Stringer.
func (m OperationMode) String() string {
	switch m {
	case ModeSIO:
		return "sio"
	case ModeCOM1:
		return "com1"
	case ModeCOM2:
		return "com2"
	case ModeCOM3:
		return "com3"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseOperationMode parses the string form produced by String.
func ParseOperationMode(s string) (OperationMode, error) {
	switch s {
	case "sio":
		return ModeSIO, nil
	case "com1":
		return ModeCOM1, nil
	case "com2":
		return ModeCOM2, nil
	case "com3":
		return ModeCOM3, nil
	}
	return 0, fmt.Errorf("unknown operation mode %q", s)
}
