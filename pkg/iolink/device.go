package iolink

import (
	"fmt"
	"time"
)

// Identity identifies a device. It's immutable after construction.
type Identity struct {
	// DeviceID is the device address on the link.
	DeviceID uint8
	// VendorID is the vendor identification.
	VendorID uint32
	// ProductID is the product identification.
	ProductID uint32
}

// Name retrieves a display name from the identity.
func (id Identity) Name() string {
	return fmt.Sprintf("%02x/%08x:%08x", id.DeviceID, id.VendorID, id.ProductID)
}

// Device represents one attached peer. Concrete variants differ only in
// how they interpret payload bytes; the master never inspects the
// concrete type, only this capability set.
type Device interface {
	// Identity retrieves the immutable identity of the device.
	Identity() Identity
	// SupportsOperationMode checks if the device can communicate in mode.
	SupportsOperationMode(mode OperationMode) bool
	// MinCycleTime is the lower bound on how often process data may
	// be polled.
	MinCycleTime() time.Duration
	// ReadProcessData reads the current process data.
	ReadProcessData() ([]byte, error)
	// WriteProcessData writes process data to the device.
	WriteProcessData(data []byte) error
	// ReadParameter reads an acyclic parameter value.
	ReadParameter(index uint16, subindex uint8) ([]byte, error)
	// WriteParameter writes an acyclic parameter value.
	WriteParameter(index uint16, subindex uint8, data []byte) error
	// ReadDiagnostic reads diagnostic information.
	ReadDiagnostic() ([]byte, error)
}
