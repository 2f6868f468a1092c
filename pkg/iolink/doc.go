// Package iolink provides the shared types of the IO-Link master driver.
package iolink

// The master side of a point-to-point IO-Link line speaks in frames
// (see package frame) over a byte transport (see package transport),
// and exposes attached peers through the Device capability set.
//
// Error values are flat: every fallible operation returns its error
// directly to the caller, and there is no retry anywhere in this layer.
// Callers needing resilience against transient communication errors or
// timeouts re-invoke explicitly.
