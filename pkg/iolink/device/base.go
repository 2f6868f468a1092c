// Package device provides Device variants attached to a master.
package device

import (
	"time"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

// DefaultMinCycleTime is the lower bound on process data polling for
// devices that don't declare their own.
const DefaultMinCycleTime = 2 * time.Millisecond

// Base is an identity-only device: it communicates in COM2 mode and
// supports no data operations. Concrete variants embed it and override
// payload interpretation.
type Base struct {
	identity iolink.Identity
}

// NewBase creates a Base with the given identity.
func NewBase(identity iolink.Identity) *Base {
	return &Base{identity: identity}
}

// Identity implements iolink.Device.
func (d *Base) Identity() iolink.Identity {
	return d.identity
}

// SupportsOperationMode implements iolink.Device.
func (d *Base) SupportsOperationMode(mode iolink.OperationMode) bool {
	return mode == iolink.ModeCOM2
}

// MinCycleTime implements iolink.Device.
func (d *Base) MinCycleTime() time.Duration {
	return DefaultMinCycleTime
}

// ReadProcessData implements iolink.Device.
func (d *Base) ReadProcessData() ([]byte, error) {
	return nil, iolink.ErrNotSupported
}

// WriteProcessData implements iolink.Device.
func (d *Base) WriteProcessData(data []byte) error {
	return iolink.ErrNotSupported
}

// ReadParameter implements iolink.Device.
func (d *Base) ReadParameter(index uint16, subindex uint8) ([]byte, error) {
	return nil, iolink.ErrNotSupported
}

// WriteParameter implements iolink.Device.
func (d *Base) WriteParameter(index uint16, subindex uint8, data []byte) error {
	return iolink.ErrNotSupported
}

// ReadDiagnostic implements iolink.Device.
func (d *Base) ReadDiagnostic() ([]byte, error) {
	return nil, iolink.ErrNotSupported
}
