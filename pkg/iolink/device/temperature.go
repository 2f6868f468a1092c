package device

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

// Temperature sensor parameter addresses.
const (
	// ParamThresholds is the parameter index of the alarm thresholds.
	ParamThresholds uint16 = 0x0040
	// SubindexLow addresses the low alarm threshold.
	SubindexLow uint8 = 1
	// SubindexHigh addresses the high alarm threshold.
	SubindexHigh uint8 = 2
)

// Alarm flags reported in the diagnostic byte.
const (
	AlarmLow  byte = 1 << 0
	AlarmHigh byte = 1 << 1
)

// TempMinCycleTime is the minimum process data polling interval of the
// temperature sensor.
const TempMinCycleTime = 10 * time.Millisecond

// Reading is one decoded temperature sample. Raw is in tenths of a
// degree Celsius, big-endian on the wire.
type Reading struct {
	Raw int16
}

// DecodeReading decodes a process data payload into a Reading.
func DecodeReading(data []byte) (Reading, error) {
	if len(data) < 2 {
		return Reading{}, iolink.ErrInvalidParameter
	}
	return Reading{Raw: int16(binary.BigEndian.Uint16(data))}, nil
}

// Bytes returns the wire encoding of the reading.
func (r Reading) Bytes() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(r.Raw))
	return b
}

// Celsius returns the reading in degrees Celsius.
func (r Reading) Celsius() float64 {
	return float64(r.Raw) / 10
}

// Fahrenheit returns the reading in degrees Fahrenheit.
func (r Reading) Fahrenheit() float64 {
	return r.Celsius()*9/5 + 32
}

// Kelvin returns the reading in Kelvin.
func (r Reading) Kelvin() float64 {
	return r.Celsius() + 273.15
}

// AlarmFunc is called when a sample crosses an alarm threshold.
type AlarmFunc func(r Reading, alarms byte)

// TemperatureSensor interprets process data as a 16-bit big-endian
// temperature in tenths of a degree and enforces configurable alarm
// thresholds. It widens the base capability set to COM3.
type TemperatureSensor struct {
	Base

	// OnAlarm, if set, is invoked when a written sample raises alarms
	// that were not raised by the previous sample.
	OnAlarm AlarmFunc

	lock      sync.Mutex
	sample    Reading
	hasSample bool
	low, high int16
	alarms    byte
}

// errNoSample is reported when process data is read before any sample
// has been exchanged.
var errNoSample = &iolink.DeviceError{Code: 0x01}

// NewTemperatureSensor creates a TemperatureSensor with alarms disabled.
func NewTemperatureSensor(identity iolink.Identity) *TemperatureSensor {
	return &TemperatureSensor{
		Base: *NewBase(identity),
		low:  math.MinInt16,
		high: math.MaxInt16,
	}
}

// SupportsOperationMode implements iolink.Device.
func (d *TemperatureSensor) SupportsOperationMode(mode iolink.OperationMode) bool {
	return mode == iolink.ModeCOM2 || mode == iolink.ModeCOM3
}

// MinCycleTime implements iolink.Device.
func (d *TemperatureSensor) MinCycleTime() time.Duration {
	return TempMinCycleTime
}

// ReadProcessData implements iolink.Device. It returns the wire form of
// the latest sample.
func (d *TemperatureSensor) ReadProcessData() ([]byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.hasSample {
		return nil, errNoSample
	}
	return d.sample.Bytes(), nil
}

// WriteProcessData implements iolink.Device. It decodes the sample and
// evaluates alarm thresholds.
func (d *TemperatureSensor) WriteProcessData(data []byte) error {
	r, err := DecodeReading(data)
	if err != nil {
		return err
	}
	d.lock.Lock()
	d.sample, d.hasSample = r, true
	var alarms byte
	if r.Raw <= d.low {
		alarms |= AlarmLow
	}
	if r.Raw >= d.high {
		alarms |= AlarmHigh
	}
	raised := alarms &^ d.alarms
	d.alarms = alarms
	onAlarm := d.OnAlarm
	d.lock.Unlock()
	if raised != 0 && onAlarm != nil {
		onAlarm(r, alarms)
	}
	return nil
}

// Reading retrieves the latest decoded sample.
func (d *TemperatureSensor) Reading() (Reading, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.hasSample {
		return Reading{}, errNoSample
	}
	return d.sample, nil
}

// SetAlarmThresholds sets the low and high alarm thresholds in degrees
// Celsius. Values outside the representable range of the 16-bit
// tenths-of-a-degree register are clamped to its bounds.
func (d *TemperatureSensor) SetAlarmThresholds(low, high float64) {
	d.lock.Lock()
	d.low, d.high = clampTenths(low), clampTenths(high)
	d.lock.Unlock()
}

func clampTenths(deg float64) int16 {
	tenths := math.Round(deg * 10)
	switch {
	case tenths > math.MaxInt16:
		return math.MaxInt16
	case tenths < math.MinInt16:
		return math.MinInt16
	}
	return int16(tenths)
}

// ReadParameter implements iolink.Device.
func (d *TemperatureSensor) ReadParameter(index uint16, subindex uint8) ([]byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if index != ParamThresholds {
		return nil, iolink.ErrNotSupported
	}
	switch subindex {
	case SubindexLow:
		return Reading{Raw: d.low}.Bytes(), nil
	case SubindexHigh:
		return Reading{Raw: d.high}.Bytes(), nil
	}
	return nil, iolink.ErrNotSupported
}

// WriteParameter implements iolink.Device.
func (d *TemperatureSensor) WriteParameter(index uint16, subindex uint8, data []byte) error {
	if len(data) != 2 {
		return iolink.ErrInvalidParameter
	}
	raw := int16(binary.BigEndian.Uint16(data))
	d.lock.Lock()
	defer d.lock.Unlock()
	if index != ParamThresholds {
		return iolink.ErrNotSupported
	}
	switch subindex {
	case SubindexLow:
		d.low = raw
	case SubindexHigh:
		d.high = raw
	default:
		return iolink.ErrNotSupported
	}
	return nil
}

// ReadDiagnostic implements iolink.Device. It returns one byte of
// alarm flags.
func (d *TemperatureSensor) ReadDiagnostic() ([]byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return []byte{d.alarms}, nil
}
