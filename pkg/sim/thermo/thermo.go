// Package thermo simulates a temperature sensor peer on the far end of
// a transport pipe. It is used by the demo daemon, the CLI's simulated
// mode and integration-style tests.
package thermo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/frame"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
)

// EventTemperatureStep is the event code emitted when the simulated
// temperature moves by a full degree within one step.
const EventTemperatureStep byte = 0x01

// Device simulates the peer side of the link: it answers process data,
// parameter and diagnostic requests and occasionally emits events.
//
// Request payload conventions:
//   - process data: empty request, 2-byte big-endian reply.
//   - parameter: [indexHi indexLo subindex] reads the value;
//     [indexHi indexLo subindex data...] writes it and acks with an
//     empty payload.
//   - diagnostic: empty request, 1-byte alarm flags reply.
type Device struct {
	// End is the device side of the transport pipe.
	End *transport.Endpoint
	// Interval is the polling granularity of the simulation.
	Interval time.Duration
	// EventChance is the probability (0..1) of emitting an event after
	// a temperature step of a degree or more.
	EventChance float64

	lock      sync.Mutex
	temp      int16 // tenths of a degree
	lastEvent int16
	low       int16
	high      int16
	recvBuf   []byte
	rnd       *rand.Rand
}

// New creates a simulated device on the given pipe end. The end is
// opened right away so the master side can write wake-up patterns and
// requests before Run gets scheduled.
func New(end *transport.Endpoint) *Device {
	end.Open() // never fails for a pipe end
	return &Device{
		End:         end,
		Interval:    time.Millisecond,
		EventChance: 0.2,
		temp:        215, // 21.5 C
		lastEvent:   215,
		low:         -100,
		high:        400,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Temperature retrieves the current simulated temperature.
func (d *Device) Temperature() device.Reading {
	d.lock.Lock()
	defer d.lock.Unlock()
	return device.Reading{Raw: d.temp}
}

// Run implements run.Runnable. It serves requests until the context
// is canceled, then closes the pipe end. Open is idempotent, so a Run
// restarted after Close recovers the end opened by New.
func (d *Device) Run(ctx context.Context) error {
	if err := d.End.Open(); err != nil {
		return err
	}
	defer d.End.Close()
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.step()
			d.serve()
		}
	}
}

// step advances the random walk of the temperature.
func (d *Device) step() {
	d.lock.Lock()
	d.temp += int16(d.rnd.Intn(7)) - 3
	moved := d.temp - d.lastEvent
	emit := (moved >= 10 || moved <= -10) && d.rnd.Float64() < d.EventChance
	if emit {
		d.lastEvent = d.temp
	}
	temp := d.temp
	d.lock.Unlock()
	if emit {
		d.emitEvent(temp)
	}
}

// serve drains the pipe and answers every complete request frame.
func (d *Device) serve() {
	for d.End.Available() > 0 {
		b, err := d.End.ReadByte()
		if err != nil {
			return
		}
		d.recvBuf = append(d.recvBuf, b)
	}
	for {
		f, err := frame.Decode(d.recvBuf)
		if err != nil {
			// wake-up patterns and partial frames are left to age out
			d.dropGarbage()
			return
		}
		d.recvBuf = d.recvBuf[f.EncodedLen():]
		d.handle(f)
	}
}

// dropGarbage discards leading bytes that can never start a frame,
// e.g. the zero bytes of a wake-up pattern, and skips past a complete
// but corrupt frame that would otherwise wedge the buffer.
func (d *Device) dropGarbage() {
	for len(d.recvBuf) > 0 && d.recvBuf[0] != frame.Marker {
		d.recvBuf = d.recvBuf[1:]
	}
	if len(d.recvBuf) >= frame.HeaderLen && len(d.recvBuf) >= int(d.recvBuf[2])+frame.HeaderLen {
		if _, err := frame.Decode(d.recvBuf); err != nil {
			d.recvBuf = d.recvBuf[1:]
		}
	}
}

func (d *Device) handle(f *frame.Frame) {
	switch f.Type {
	case iolink.MsgProcessData:
		d.reply(iolink.MsgProcessData, d.Temperature().Bytes())
	case iolink.MsgParameter:
		d.handleParameter(f.Payload)
	case iolink.MsgDiagnostic:
		d.reply(iolink.MsgDiagnostic, []byte{d.alarms()})
	default:
		glog.V(2).Infof("ignoring %v request", f.Type)
	}
}

func (d *Device) handleParameter(payload []byte) {
	if len(payload) < 3 {
		return
	}
	index := uint16(payload[0])<<8 | uint16(payload[1])
	subindex := payload[2]
	if index != device.ParamThresholds {
		return
	}
	if len(payload) == 3 {
		d.lock.Lock()
		value := d.low
		if subindex == device.SubindexHigh {
			value = d.high
		}
		d.lock.Unlock()
		d.reply(iolink.MsgParameter, device.Reading{Raw: value}.Bytes())
		return
	}
	if len(payload) != 5 {
		return
	}
	raw := int16(uint16(payload[3])<<8 | uint16(payload[4]))
	d.lock.Lock()
	if subindex == device.SubindexHigh {
		d.high = raw
	} else {
		d.low = raw
	}
	d.lock.Unlock()
	d.reply(iolink.MsgParameter, nil)
}

func (d *Device) alarms() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	var flags byte
	if d.temp <= d.low {
		flags |= device.AlarmLow
	}
	if d.temp >= d.high {
		flags |= device.AlarmHigh
	}
	return flags
}

func (d *Device) reply(typ iolink.MessageType, payload []byte) {
	if _, err := d.End.Write(frame.Encode(typ, payload)); err != nil {
		glog.V(2).Infof("reply dropped: %v", err)
	}
}

func (d *Device) emitEvent(temp int16) {
	payload := append([]byte{EventTemperatureStep}, device.Reading{Raw: temp}.Bytes()...)
	if _, err := d.End.Write(frame.Encode(iolink.MsgEvent, payload)); err != nil {
		glog.V(2).Infof("event dropped: %v", err)
	}
}
