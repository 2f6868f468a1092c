package transport

import (
	"errors"
	"sync"
)

var (
	// ErrClosed indicates an operation on a closed transport.
	ErrClosed = errors.New("transport closed")
	// ErrNoData indicates ReadByte was called with nothing buffered.
	ErrNoData = errors.New("no data available")
)

// Endpoint is one end of an in-memory byte pipe. Writes on one end
// appear in the peer's read buffer. It implements Transport and is used
// by tests, the device simulator and the CLI's simulated mode.
type Endpoint struct {
	peer *Endpoint

	lock   sync.Mutex
	params Params
	open   bool
	buf    []byte
}

// Pipe creates two cross-connected endpoints.
func Pipe() (*Endpoint, *Endpoint) {
	a, b := &Endpoint{}, &Endpoint{}
	a.peer, b.peer = b, a
	return a, b
}

// Configure implements Transport.
func (e *Endpoint) Configure(params Params) error {
	e.lock.Lock()
	e.params = params
	e.lock.Unlock()
	return nil
}

// Params retrieves the configured link parameters.
func (e *Endpoint) Params() Params {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.params
}

// Open implements Transport.
func (e *Endpoint) Open() error {
	e.lock.Lock()
	e.open = true
	e.lock.Unlock()
	return nil
}

// Close implements Transport.
func (e *Endpoint) Close() error {
	e.lock.Lock()
	e.open = false
	e.buf = nil
	e.lock.Unlock()
	return nil
}

// IsOpen reports if the endpoint has been opened.
func (e *Endpoint) IsOpen() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.open
}

// Write implements Transport by appending to the peer's read buffer.
func (e *Endpoint) Write(p []byte) (int, error) {
	peer := e.peer
	peer.lock.Lock()
	defer peer.lock.Unlock()
	if !peer.open {
		return 0, ErrClosed
	}
	peer.buf = append(peer.buf, p...)
	return len(p), nil
}

// Available implements Transport.
func (e *Endpoint) Available() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.buf)
}

// ReadByte implements Transport.
func (e *Endpoint) ReadByte() (byte, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if !e.open {
		return 0, ErrClosed
	}
	if len(e.buf) == 0 {
		return 0, ErrNoData
	}
	b := e.buf[0]
	e.buf = e.buf[1:]
	return b, nil
}
