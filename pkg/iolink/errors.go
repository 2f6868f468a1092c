package iolink

import (
	"errors"
	"fmt"
)

var (
	// ErrCommunication indicates a framing, parse or checksum failure.
	ErrCommunication = errors.New("communication error")
	// ErrTimeout indicates the deadline elapsed without a matching frame.
	ErrTimeout = errors.New("timeout")
	// ErrInvalidParameter indicates an out-of-range port or malformed call.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotSupported indicates the operation is not implemented by the
	// addressed device variant.
	ErrNotSupported = errors.New("not supported")
)

// DeviceError wraps an error code reported by a device.
type DeviceError struct {
	Code byte
}

// Error implements error.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error %d", e.Code)
}
