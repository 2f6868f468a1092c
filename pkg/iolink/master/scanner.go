package master

import (
	"context"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
)

// Scanner is the discovery collaborator: given the transport, it
// returns the responding devices in port order. The wake-up handshake
// and capability readout live behind this interface.
type Scanner interface {
	Scan(ctx context.Context, t transport.Transport) ([]iolink.Device, error)
}

// ScanFunc is the func form of Scanner.
type ScanFunc func(ctx context.Context, t transport.Transport) ([]iolink.Device, error)

// Scan implements Scanner.
func (f ScanFunc) Scan(ctx context.Context, t transport.Transport) ([]iolink.Device, error) {
	return f(ctx, t)
}

// StaticScanner reports a fixed topology, for setups where the attached
// devices are known ahead of time. It emits the wake-up broadcast and
// constructs one fresh device per configured identity.
type StaticScanner struct {
	Identities []iolink.Identity
	// NewDevice constructs the device variant for an identity.
	// Defaults to the identity-only base variant.
	NewDevice func(id iolink.Identity) iolink.Device
}

// Scan implements Scanner.
func (s *StaticScanner) Scan(ctx context.Context, t transport.Transport) ([]iolink.Device, error) {
	if _, err := t.Write(wakeupPattern); err != nil {
		return nil, err
	}
	newDevice := s.NewDevice
	if newDevice == nil {
		newDevice = func(id iolink.Identity) iolink.Device { return device.NewBase(id) }
	}
	devices := make([]iolink.Device, len(s.Identities))
	for n, id := range s.Identities {
		devices[n] = newDevice(id)
	}
	return devices, nil
}
