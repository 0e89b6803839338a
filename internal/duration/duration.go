// Package duration holds the minimum dwell time of every timed cycle phase.
// Values are design constants tuned per appliance.
package duration

import "github.com/sweeney/grprp/internal/millis"

const (
	Default      millis.Millis = 1000
	DefaultShort millis.Millis = 250
)

const (
	Draining            = Default
	Locking             = DefaultShort
	SeparatorTransition = Default
	WaterPumping        = Default
	Heating             = Default
	HeatedMixing        = Default
	Mixing              = Default
	Rinsing             = Default
	SeparatorHolding    = Default
	Blending            = Default
)

// SoakWaterPumping is the earlier name of WaterPumping.
//
// Deprecated: use WaterPumping.
const SoakWaterPumping = WaterPumping

// Phase names a timed phase of the cycle.
type Phase uint8

const (
	PhaseDraining Phase = iota
	PhaseLocking
	PhaseSeparatorTransition
	PhaseWaterPumping
	PhaseHeating
	PhaseHeatedMixing
	PhaseMixing
	PhaseRinsing
	PhaseSeparatorHolding
	PhaseBlending

	phaseCount
)

// table is indexed by phase. Every phase needs a non-zero entry.
var table = [phaseCount]millis.Millis{
	PhaseDraining:            Draining,
	PhaseLocking:             Locking,
	PhaseSeparatorTransition: SeparatorTransition,
	PhaseWaterPumping:        WaterPumping,
	PhaseHeating:             Heating,
	PhaseHeatedMixing:        HeatedMixing,
	PhaseMixing:              Mixing,
	PhaseRinsing:             Rinsing,
	PhaseSeparatorHolding:    SeparatorHolding,
	PhaseBlending:            Blending,
}

var names = [phaseCount]string{
	PhaseDraining:            "draining",
	PhaseLocking:             "locking",
	PhaseSeparatorTransition: "separator_transition",
	PhaseWaterPumping:        "water_pumping",
	PhaseHeating:             "heating",
	PhaseHeatedMixing:        "heated_mixing",
	PhaseMixing:              "mixing",
	PhaseRinsing:             "rinsing",
	PhaseSeparatorHolding:    "separator_holding",
	PhaseBlending:            "blending",
}

// For returns the dwell time of p. It panics for a value outside the
// declared phases.
func For(p Phase) millis.Millis {
	return table[p]
}

// Phases returns every declared phase in order.
func Phases() []Phase {
	out := make([]Phase, phaseCount)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

func (p Phase) String() string {
	if p >= phaseCount {
		return "unknown"
	}
	return names[p]
}
