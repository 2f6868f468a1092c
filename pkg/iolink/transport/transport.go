package transport

// Parity is the parity setting of a link.
type Parity int

// Parity settings
const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// FlowControl is the flow control setting of a link.
type FlowControl int

// Flow control settings
const (
	FlowNone FlowControl = iota
	FlowHardware
)

// Params are the link parameters of a transport.
type Params struct {
	Baud        int
	DataBits    int
	Parity      Parity
	StopBits    int
	FlowControl FlowControl
}

// LinkParams returns the standard IO-Link link parameters: 8 data bits,
// no parity, 1 stop bit, no flow control.
func LinkParams(baud int) Params {
	return Params{Baud: baud, DataBits: 8, Parity: ParityNone, StopBits: 1}
}

// Transport is a configurable, buffered byte channel. Writes are
// blocking and preserve byte order with no implicit framing; reads are
// non-blocking against an internal buffer.
type Transport interface {
	// Configure sets the link parameters. It must be called before Open.
	Configure(params Params) error
	// Open opens the link. Opening an already open link is a no-op.
	Open() error
	// Close closes the link.
	Close() error
	// Write writes a sequence of bytes, in order.
	Write(p []byte) (int, error)
	// Available reports the number of bytes currently buffered for reading.
	Available() int
	// ReadByte reads one buffered byte without blocking.
	ReadByte() (byte, error)
}
