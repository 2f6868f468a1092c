package thermo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/master"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
)

func newSimEnv(t *testing.T) (*master.Master, *Device, func()) {
	end, peer := transport.Pipe()
	dev := New(peer)
	dev.EventChance = 0 // deterministic exchange, no unsolicited frames

	m := master.New(end)
	m.Scanner = &master.StaticScanner{
		Identities: []iolink.Identity{{DeviceID: 1, VendorID: 1, ProductID: 2}},
	}
	require.NoError(t, m.Configure(38400))

	ctx, cancel := context.WithCancel(context.Background())
	go dev.Run(ctx)
	require.NoError(t, m.ScanForDevices(ctx))
	return m, dev, cancel
}

func TestWritableBeforeRun(t *testing.T) {
	end, peer := transport.Pipe()
	dev := New(peer)
	require.True(t, dev.End.IsOpen())

	// the wake-up write of a scan must not race the serve loop startup
	m := master.New(end)
	m.Scanner = &master.StaticScanner{
		Identities: []iolink.Identity{{DeviceID: 1, VendorID: 1, ProductID: 2}},
	}
	require.NoError(t, m.Configure(38400))
	require.NoError(t, m.ScanForDevices(context.Background()))
	require.Equal(t, 1, m.NumPorts())
}

func TestProcessDataExchange(t *testing.T) {
	m, dev, cancel := newSimEnv(t)
	defer cancel()

	require.NoError(t, m.SendMessage(0, iolink.MsgProcessData, nil))
	payload, err := m.ReceiveMessage(context.Background(), 0, iolink.MsgProcessData, time.Second)
	require.NoError(t, err)

	r, err := device.DecodeReading(payload)
	require.NoError(t, err)
	// the walk moves at most 0.3 degrees per step
	require.InDelta(t, dev.Temperature().Celsius(), r.Celsius(), 5.0)
}

func TestParameterExchange(t *testing.T) {
	m, _, cancel := newSimEnv(t)
	defer cancel()

	write := []byte{byte(device.ParamThresholds >> 8), byte(device.ParamThresholds), device.SubindexHigh, 0x01, 0x2c}
	require.NoError(t, m.SendMessage(0, iolink.MsgParameter, write))
	ack, err := m.ReceiveMessage(context.Background(), 0, iolink.MsgParameter, time.Second)
	require.NoError(t, err)
	require.Empty(t, ack)

	read := write[:3]
	require.NoError(t, m.SendMessage(0, iolink.MsgParameter, read))
	value, err := m.ReceiveMessage(context.Background(), 0, iolink.MsgParameter, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x2c}, value)
}

func TestDiagnosticExchange(t *testing.T) {
	m, _, cancel := newSimEnv(t)
	defer cancel()

	require.NoError(t, m.SendMessage(0, iolink.MsgDiagnostic, nil))
	diag, err := m.ReceiveMessage(context.Background(), 0, iolink.MsgDiagnostic, time.Second)
	require.NoError(t, err)
	require.Len(t, diag, 1)
}

func TestWakeupTolerated(t *testing.T) {
	m, _, cancel := newSimEnv(t)
	defer cancel()

	// wake-up zeros ahead of a request must not confuse the peer
	require.NoError(t, m.ActivatePort(0, iolink.ModeCOM2))
	require.NoError(t, m.SendMessage(0, iolink.MsgProcessData, nil))
	_, err := m.ReceiveMessage(context.Background(), 0, iolink.MsgProcessData, time.Second)
	require.NoError(t, err)
}
