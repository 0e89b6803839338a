//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/grprp/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chipName string, pinStart, pinStop int) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, bool, error) {
	return false, false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// NewRealWriter returns an error on non-Linux platforms.
func NewRealWriter(chipName string, pins map[logic.Actuator]int) (*RealWriter, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (w *RealWriter) Set(a logic.Actuator, on bool) error {
	return errUnsupported
}

// Toggle is not implemented on non-Linux platforms.
func (w *RealWriter) Toggle(a logic.Actuator) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *RealWriter) Close() error {
	return nil
}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chipName string, pin int) (Output, error) {
	return nil, errUnsupported
}
