// Package serial provides a Transport backed by a real serial port.
package serial

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
)

// ReadChunk is the buffer size of a single port read.
const ReadChunk = 256

// Transport adapts a serial port to the transport capability contract.
// A background reader drains the port into an internal buffer so that
// Available and ReadByte never block.
type Transport struct {
	// Name is the port name, e.g. /dev/ttyUSB0.
	Name string

	lock   sync.Mutex
	params transport.Params
	port   *serial.Port
	buf    []byte
	stopCh chan struct{}
}

// New creates a Transport for the named port.
func New(name string) *Transport {
	return &Transport{Name: name}
}

// Configure implements transport.Transport.
func (t *Transport) Configure(params transport.Params) error {
	if params.DataBits != 0 && params.DataBits != 8 {
		return fmt.Errorf("unsupported data bits %d", params.DataBits)
	}
	if params.FlowControl != transport.FlowNone {
		return fmt.Errorf("flow control not supported")
	}
	t.lock.Lock()
	t.params = params
	t.lock.Unlock()
	return nil
}

// Open implements transport.Transport. Opening an open port is a no-op.
func (t *Transport) Open() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.port != nil {
		return nil
	}
	conf := &serial.Config{
		Name:        t.Name,
		Baud:        t.params.Baud,
		ReadTimeout: 10 * time.Millisecond,
	}
	switch t.params.Parity {
	case transport.ParityOdd:
		conf.Parity = serial.ParityOdd
	case transport.ParityEven:
		conf.Parity = serial.ParityEven
	default:
		conf.Parity = serial.ParityNone
	}
	if t.params.StopBits == 2 {
		conf.StopBits = serial.Stop2
	} else {
		conf.StopBits = serial.Stop1
	}
	port, err := serial.OpenPort(conf)
	if err != nil {
		return err
	}
	t.port = port
	t.stopCh = make(chan struct{})
	go t.readLoop(port, t.stopCh)
	glog.V(1).Infof("opened %s at %d baud", t.Name, t.params.Baud)
	return nil
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.lock.Lock()
	port, stopCh := t.port, t.stopCh
	t.port, t.stopCh, t.buf = nil, nil, nil
	t.lock.Unlock()
	if port == nil {
		return nil
	}
	close(stopCh)
	return port.Close()
}

// Write implements transport.Transport.
func (t *Transport) Write(p []byte) (int, error) {
	t.lock.Lock()
	port := t.port
	t.lock.Unlock()
	if port == nil {
		return 0, transport.ErrClosed
	}
	return port.Write(p)
}

// Available implements transport.Transport.
func (t *Transport) Available() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.buf)
}

// ReadByte implements transport.Transport.
func (t *Transport) ReadByte() (byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.port == nil {
		return 0, transport.ErrClosed
	}
	if len(t.buf) == 0 {
		return 0, transport.ErrNoData
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, nil
}

func (t *Transport) readLoop(port *serial.Port, stopCh chan struct{}) {
	chunk := make([]byte, ReadChunk)
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		// The port read times out regularly so the loop can observe stopCh.
		n, err := port.Read(chunk)
		if n > 0 {
			t.lock.Lock()
			t.buf = append(t.buf, chunk[:n]...)
			t.lock.Unlock()
		}
		if err != nil && err != io.EOF && !os.IsTimeout(err) {
			glog.Warningf("%s read: %v", t.Name, err)
		}
	}
}
