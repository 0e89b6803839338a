// Package logic contains the pure cycle state machine of the appliance.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Elapsed time is always passed in as a millis.Millis parameter.
package logic

import "fmt"

// State is a phase of the appliance cycle. It carries no payload.
type State uint8

const (
	// Initial setup cycle, run once after power-on.
	InitialDraining State = iota
	InitialIdling
	InitialLocking
	InitialUnlocking
	InitialSetupSeparatorOpening
	InitialSetupWaterPumping
	InitialSetupSeparatorClosing

	// Main processing cycle.
	SoakWaterPumping
	SoakWaterHeating
	SoakWaterHeatedMixing
	SoakWaterMixing
	SoakWaterDraining
	RinseWaterPumping
	RinseWaterDraining
	SeparatorOpening
	SeparatorHolding
	SeparatorClosing
	Blending
	PulpDraining
	SetupSeparatorOpening
	SetupWaterPumping
	SetupSeparatorClosing

	// Idle re-entry.
	Idling
	Locking
	Unlocking

	stateCount
)

var stateNames = [stateCount]string{
	InitialDraining:              "INITIAL_DRAINING",
	InitialIdling:                "INITIAL_IDLING",
	InitialLocking:               "INITIAL_LOCKING",
	InitialUnlocking:             "INITIAL_UNLOCKING",
	InitialSetupSeparatorOpening: "INITIAL_SETUP_SEPARATOR_OPENING",
	InitialSetupWaterPumping:     "INITIAL_SETUP_WATER_PUMPING",
	InitialSetupSeparatorClosing: "INITIAL_SETUP_SEPARATOR_CLOSING",
	SoakWaterPumping:             "SOAK_WATER_PUMPING",
	SoakWaterHeating:             "SOAK_WATER_HEATING",
	SoakWaterHeatedMixing:        "SOAK_WATER_HEATED_MIXING",
	SoakWaterMixing:              "SOAK_WATER_MIXING",
	SoakWaterDraining:            "SOAK_WATER_DRAINING",
	RinseWaterPumping:            "RINSE_WATER_PUMPING",
	RinseWaterDraining:           "RINSE_WATER_DRAINING",
	SeparatorOpening:             "SEPARATOR_OPENING",
	SeparatorHolding:             "SEPARATOR_HOLDING",
	SeparatorClosing:             "SEPARATOR_CLOSING",
	Blending:                     "BLENDING",
	PulpDraining:                 "PULP_DRAINING",
	SetupSeparatorOpening:        "SETUP_SEPARATOR_OPENING",
	SetupWaterPumping:            "SETUP_WATER_PUMPING",
	SetupSeparatorClosing:        "SETUP_SEPARATOR_CLOSING",
	Idling:                       "IDLING",
	Locking:                      "LOCKING",
	Unlocking:                    "UNLOCKING",
}

func (s State) String() string {
	if s >= stateCount {
		return fmt.Sprintf("State(%d)", uint8(s))
	}
	return stateNames[s]
}

// States returns all states in declaration order.
func States() []State {
	out := make([]State, stateCount)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// IsIdle reports whether s is a resting state that waits for the start
// signal. The stop latch is cleared on arrival here.
func (s State) IsIdle() bool {
	return s == Idling || s == InitialIdling
}

// IsSoaking reports whether s is one of the soak states that abort straight
// to SoakWaterDraining when a stop is latched.
func (s State) IsSoaking() bool {
	switch s {
	case SoakWaterPumping, SoakWaterHeating, SoakWaterHeatedMixing, SoakWaterMixing:
		return true
	}
	return false
}

// Actuator identifies one digital output of the appliance.
type Actuator uint8

const (
	LowerDrainPump Actuator = iota
	UpperDrainPump
	Blender
	Heater
	Mixer
	SeparatorHatchEnable
	SeparatorHatchDirection
	InputHatchLockEnable
	InputHatchLockDirection
	WaterPump
	Ready

	actuatorCount
)

var actuatorNames = [actuatorCount]string{
	LowerDrainPump:          "lower_drain_pump",
	UpperDrainPump:          "upper_drain_pump",
	Blender:                 "blender",
	Heater:                  "heater",
	Mixer:                   "mixer",
	SeparatorHatchEnable:    "separator_hatch_enable",
	SeparatorHatchDirection: "separator_hatch_direction",
	InputHatchLockEnable:    "input_hatch_lock_enable",
	InputHatchLockDirection: "input_hatch_lock_direction",
	WaterPump:               "water_pump",
	Ready:                   "ready",
}

// String returns the configuration key of the actuator.
func (a Actuator) String() string {
	if a >= actuatorCount {
		return fmt.Sprintf("Actuator(%d)", uint8(a))
	}
	return actuatorNames[a]
}

// Actuators returns all actuators in declaration order.
func Actuators() []Actuator {
	out := make([]Actuator, actuatorCount)
	for i := range out {
		out[i] = Actuator(i)
	}
	return out
}

// ParseActuator returns the actuator with the given configuration key.
func ParseActuator(name string) (Actuator, bool) {
	for i, n := range actuatorNames {
		if n == name {
			return Actuator(i), true
		}
	}
	return 0, false
}
