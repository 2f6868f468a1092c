package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

var testIdentity = iolink.Identity{DeviceID: 1, VendorID: 0x12345678, ProductID: 0x87654321}

func TestBase(t *testing.T) {
	d := NewBase(testIdentity)
	require.Equal(t, testIdentity, d.Identity())
	require.Equal(t, DefaultMinCycleTime, d.MinCycleTime())

	require.True(t, d.SupportsOperationMode(iolink.ModeCOM2))
	for _, mode := range []iolink.OperationMode{iolink.ModeSIO, iolink.ModeCOM1, iolink.ModeCOM3} {
		require.Falsef(t, d.SupportsOperationMode(mode), "mode %v", mode)
	}

	_, err := d.ReadProcessData()
	require.Equal(t, iolink.ErrNotSupported, err)
	require.Equal(t, iolink.ErrNotSupported, d.WriteProcessData([]byte{1}))
	_, err = d.ReadParameter(1, 0)
	require.Equal(t, iolink.ErrNotSupported, err)
	require.Equal(t, iolink.ErrNotSupported, d.WriteParameter(1, 0, []byte{1}))
	_, err = d.ReadDiagnostic()
	require.Equal(t, iolink.ErrNotSupported, err)
}

func TestReading(t *testing.T) {
	testCases := []struct {
		name       string
		data       []byte
		celsius    float64
		fahrenheit float64
		kelvin     float64
	}{
		{"ten degrees", []byte{0x00, 0x64}, 10.0, 50.0, 283.15},
		{"zero", []byte{0x00, 0x00}, 0.0, 32.0, 273.15},
		{"negative", []byte{0xff, 0x38}, -20.0, -4.0, 253.15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := DecodeReading(tc.data)
			require.NoError(t, err)
			require.InDelta(t, tc.celsius, r.Celsius(), 1e-9)
			require.InDelta(t, tc.fahrenheit, r.Fahrenheit(), 1e-9)
			require.InDelta(t, tc.kelvin, r.Kelvin(), 1e-9)
			require.Equal(t, tc.data, r.Bytes())
		})
	}

	_, err := DecodeReading([]byte{0x01})
	require.Equal(t, iolink.ErrInvalidParameter, err)
}

func TestTemperatureSensorProcessData(t *testing.T) {
	d := NewTemperatureSensor(testIdentity)
	require.Equal(t, testIdentity, d.Identity())
	require.Equal(t, TempMinCycleTime, d.MinCycleTime())
	require.True(t, d.SupportsOperationMode(iolink.ModeCOM2))
	require.True(t, d.SupportsOperationMode(iolink.ModeCOM3))
	require.False(t, d.SupportsOperationMode(iolink.ModeCOM1))

	_, err := d.ReadProcessData()
	require.IsType(t, &iolink.DeviceError{}, err)
	_, err = d.Reading()
	require.IsType(t, &iolink.DeviceError{}, err)

	require.NoError(t, d.WriteProcessData([]byte{0x00, 0x64}))
	data, err := d.ReadProcessData()
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x64}, data)
	r, err := d.Reading()
	require.NoError(t, err)
	require.InDelta(t, 10.0, r.Celsius(), 1e-9)

	require.Equal(t, iolink.ErrInvalidParameter, d.WriteProcessData([]byte{0x00}))
}

func TestTemperatureSensorAlarms(t *testing.T) {
	d := NewTemperatureSensor(testIdentity)
	var fired []byte
	d.OnAlarm = func(r Reading, alarms byte) {
		fired = append(fired, alarms)
	}
	d.SetAlarmThresholds(-10.0, 30.0)

	require.NoError(t, d.WriteProcessData(Reading{Raw: 100}.Bytes()))
	diag, err := d.ReadDiagnostic()
	require.NoError(t, err)
	require.Equal(t, []byte{0}, diag)
	require.Empty(t, fired)

	// crossing the high threshold raises the alarm once
	require.NoError(t, d.WriteProcessData(Reading{Raw: 350}.Bytes()))
	require.NoError(t, d.WriteProcessData(Reading{Raw: 360}.Bytes()))
	diag, err = d.ReadDiagnostic()
	require.NoError(t, err)
	require.Equal(t, []byte{AlarmHigh}, diag)
	require.Equal(t, []byte{AlarmHigh}, fired)

	// back in range clears the flags
	require.NoError(t, d.WriteProcessData(Reading{Raw: 0}.Bytes()))
	diag, err = d.ReadDiagnostic()
	require.NoError(t, err)
	require.Equal(t, []byte{0}, diag)

	require.NoError(t, d.WriteProcessData(Reading{Raw: -200}.Bytes()))
	diag, err = d.ReadDiagnostic()
	require.NoError(t, err)
	require.Equal(t, []byte{AlarmLow}, diag)
	require.Equal(t, []byte{AlarmHigh, AlarmLow}, fired)
}

func TestTemperatureSensorParameters(t *testing.T) {
	d := NewTemperatureSensor(testIdentity)

	require.NoError(t, d.WriteParameter(ParamThresholds, SubindexLow, Reading{Raw: -100}.Bytes()))
	require.NoError(t, d.WriteParameter(ParamThresholds, SubindexHigh, Reading{Raw: 300}.Bytes()))

	data, err := d.ReadParameter(ParamThresholds, SubindexLow)
	require.NoError(t, err)
	require.Equal(t, Reading{Raw: -100}.Bytes(), data)
	data, err = d.ReadParameter(ParamThresholds, SubindexHigh)
	require.NoError(t, err)
	require.Equal(t, Reading{Raw: 300}.Bytes(), data)

	// thresholds written via parameters are enforced
	require.NoError(t, d.WriteProcessData(Reading{Raw: 300}.Bytes()))
	diag, err := d.ReadDiagnostic()
	require.NoError(t, err)
	require.Equal(t, []byte{AlarmHigh}, diag)

	_, err = d.ReadParameter(0x0001, 0)
	require.Equal(t, iolink.ErrNotSupported, err)
	_, err = d.ReadParameter(ParamThresholds, 3)
	require.Equal(t, iolink.ErrNotSupported, err)
	require.Equal(t, iolink.ErrNotSupported, d.WriteParameter(0x0001, 0, []byte{0, 0}))
	require.Equal(t, iolink.ErrNotSupported, d.WriteParameter(ParamThresholds, 3, []byte{0, 0}))
	require.Equal(t, iolink.ErrInvalidParameter, d.WriteParameter(ParamThresholds, SubindexLow, []byte{0}))
}

func TestAlarmThresholdsClamped(t *testing.T) {
	d := NewTemperatureSensor(testIdentity)
	d.SetAlarmThresholds(-100000, 100000)

	data, err := d.ReadParameter(ParamThresholds, SubindexLow)
	require.NoError(t, err)
	require.Equal(t, Reading{Raw: math.MinInt16}.Bytes(), data)
	data, err = d.ReadParameter(ParamThresholds, SubindexHigh)
	require.NoError(t, err)
	require.Equal(t, Reading{Raw: math.MaxInt16}.Bytes(), data)
}
