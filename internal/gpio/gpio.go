// Package gpio provides GPIO input reading and actuator output with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/grprp/internal/logic"

// Reader reads the two push buttons of the appliance.
type Reader interface {
	// Read returns the logical states of the start and stop buttons.
	// The buttons pull their line low when pressed: raw 0 = logical pressed.
	// Returns (startPressed, stopPressed, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a single digital output. Set is idempotent.
type Output interface {
	Set(on bool) error
	Toggle() error
	Close() error
}

// Writer drives the actuator outputs.
type Writer interface {
	// Set drives actuator a to the given level. Setting the level it
	// already holds is a no-op on the hardware.
	Set(a logic.Actuator, on bool) error

	// Toggle inverts the current level of actuator a.
	Toggle(a logic.Actuator) error

	// Close de-energizes every output and releases resources.
	Close() error
}

// DefaultChip is the GPIO character device of the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// Default pin definitions (BCM numbering)
const (
	DefaultPinStart     = 5
	DefaultPinStop      = 6
	DefaultPinHeartbeat = 26
)

// DefaultActuatorPins maps every actuator to its default BCM pin.
func DefaultActuatorPins() map[logic.Actuator]int {
	return map[logic.Actuator]int{
		logic.Ready:                   17,
		logic.Blender:                 27,
		logic.Heater:                  22,
		logic.Mixer:                   23,
		logic.SeparatorHatchEnable:    24,
		logic.SeparatorHatchDirection: 25,
		logic.InputHatchLockDirection: 12,
		logic.InputHatchLockEnable:    13,
		logic.WaterPump:               16,
		logic.LowerDrainPump:          19,
		logic.UpperDrainPump:          20,
	}
}
