// Package master orchestrates the IO-Link line: port activation,
// message exchange and event delivery.
package master

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/frame"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
)

// DefaultPollInterval is the yield interval of the receive loop.
const DefaultPollInterval = time.Millisecond

// wakeupPattern approximates the wake-up signal (a run of at least 5
// consecutive zero-valued bits) as 10 zero bytes.
var wakeupPattern = make([]byte, 10)

// EventCallback receives unsolicited event payloads.
type EventCallback func(port int, data []byte)

// Master owns a transport and a port-indexed registry of devices.
// All operations are synchronous and run to completion on the caller's
// goroutine; callers sharing a Master across goroutines must serialize
// access themselves.
type Master struct {
	// Scanner is the discovery collaborator consulted by ScanForDevices.
	Scanner Scanner
	// PollInterval is how long ReceiveMessage yields between polls.
	PollInterval time.Duration

	transport transport.Transport
	devices   []iolink.Device
	callback  EventCallback
	recvBuf   []byte
	lock      sync.Mutex
}

// New creates a Master owning the transport.
func New(t transport.Transport) *Master {
	return &Master{
		PollInterval: DefaultPollInterval,
		transport:    t,
	}
}

// Configure sets the transport to 8 data bits, no parity, 1 stop bit,
// no flow control at the given baud rate, then opens it. Configuring an
// already open transport is a no-op at the transport level.
func (m *Master) Configure(baud int) error {
	if err := m.transport.Configure(transport.LinkParams(baud)); err != nil {
		return err
	}
	return m.transport.Open()
}

// Close closes the transport.
func (m *Master) Close() error {
	return m.transport.Close()
}

// NumPorts returns the number of ports in the registry.
func (m *Master) NumPorts() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.devices)
}

// GetDevice retrieves the device at port, nil if the port is out of
// range. The returned reference is invalidated by the next scan.
func (m *Master) GetDevice(port int) iolink.Device {
	m.lock.Lock()
	defer m.lock.Unlock()
	if port >= 0 && port < len(m.devices) {
		return m.devices[port]
	}
	return nil
}

// ActivatePort emits the wake-up pattern to initiate the peer's
// communication mode. The peer handshake and mode-switch confirmation
// are the discovery collaborator's responsibility.
func (m *Master) ActivatePort(port int, mode iolink.OperationMode) error {
	if err := m.checkPort(port); err != nil {
		return err
	}
	glog.V(1).Infof("activate port %d in %v", port, mode)
	if _, err := m.transport.Write(wakeupPattern); err != nil {
		return err
	}
	return nil
}

// DeactivatePort deactivates a port. The mode switch back to idle is
// peer-side, so no transport action is required.
func (m *Master) DeactivatePort(port int) error {
	if err := m.checkPort(port); err != nil {
		return err
	}
	glog.V(1).Infof("deactivate port %d", port)
	return nil
}

// ScanForDevices resets the device registry and repopulates it from the
// discovery collaborator. Devices from a prior scan are discarded
// wholesale; references held outside become stale.
func (m *Master) ScanForDevices(ctx context.Context) error {
	m.lock.Lock()
	m.devices = nil
	m.lock.Unlock()
	if m.Scanner == nil {
		return nil
	}
	devices, err := m.Scanner.Scan(ctx, m.transport)
	if err != nil {
		return err
	}
	m.lock.Lock()
	m.devices = devices
	m.lock.Unlock()
	for port, dev := range devices {
		glog.V(1).Infof("port %d: device %s", port, dev.Identity().Name())
	}
	return nil
}

// SendMessage encodes one frame and writes all of its bytes to the
// transport in order.
func (m *Master) SendMessage(port int, typ iolink.MessageType, payload []byte) error {
	if err := m.checkPort(port); err != nil {
		return err
	}
	if !typ.IsValid() || len(payload) > frame.MaxPayload {
		return iolink.ErrInvalidParameter
	}
	f := frame.Frame{Type: typ, Payload: payload}
	if _, err := f.WriteTo(m.transport); err != nil {
		return err
	}
	return nil
}

// ReceiveMessage polls the transport until a frame of the requested
// type arrives or timeout elapses. Partial or corrupt data seen during
// the wait is tolerated; complete frames of other types are discarded.
// Each poll iteration yields for PollInterval so a cooperative host can
// service other work.
func (m *Master) ReceiveMessage(ctx context.Context, port int, typ iolink.MessageType, timeout time.Duration) ([]byte, error) {
	if err := m.checkPort(port); err != nil {
		return nil, err
	}
	interval := m.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	m.recvBuf = m.recvBuf[:0]
	for {
		if m.drain() > 0 {
			if payload, ok := m.sift(typ); ok {
				return payload, nil
			}
		}
		if !time.Now().Before(deadline) {
			return nil, iolink.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// RegisterEventCallback replaces the event subscriber. There is at most
// one subscriber at a time; registering overwrites the previous one.
func (m *Master) RegisterEventCallback(cb EventCallback) {
	m.lock.Lock()
	m.callback = cb
	m.lock.Unlock()
}

// ProcessEvents drains currently available bytes and attempts one
// decode; a decoded event frame is delivered to the subscriber.
// Delivery is best-effort: corrupted or partial data suppresses it for
// this call. It never blocks.
//
// The wire frame carries no address field, so events cannot be
// attributed to a port on a multi-device registry; they are reported on
// port 0 and the ambiguity is logged.
func (m *Master) ProcessEvents() {
	if m.transport.Available() == 0 {
		return
	}
	m.recvBuf = m.recvBuf[:0]
	m.drain()
	f, err := frame.Decode(m.recvBuf)
	if err != nil || f.Type != iolink.MsgEvent {
		return
	}
	m.lock.Lock()
	cb := m.callback
	ambiguous := len(m.devices) > 1
	m.lock.Unlock()
	if cb == nil {
		return
	}
	if ambiguous {
		glog.Warning("event port attribution is ambiguous with multiple devices, reporting port 0")
	}
	cb(0, f.Payload)
}

// drain moves all currently available transport bytes into recvBuf.
func (m *Master) drain() int {
	var n int
	for m.transport.Available() > 0 {
		b, err := m.transport.ReadByte()
		if err != nil {
			break
		}
		m.recvBuf = append(m.recvBuf, b)
		n++
	}
	return n
}

// sift decodes complete frames off the head of recvBuf. It returns the
// payload of the first frame matching typ; frames of other types are
// dropped. Undecodable data is kept for the next poll.
func (m *Master) sift(typ iolink.MessageType) ([]byte, bool) {
	for {
		f, err := frame.Decode(m.recvBuf)
		if err != nil {
			return nil, false
		}
		m.recvBuf = m.recvBuf[f.EncodedLen():]
		if f.Type == typ {
			return f.Payload, true
		}
		glog.V(2).Infof("discarding %v frame while waiting for %v", f.Type, typ)
	}
}

func (m *Master) checkPort(port int) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if port < 0 || port >= len(m.devices) {
		return iolink.ErrInvalidParameter
	}
	return nil
}
