package logic

import (
	"github.com/sweeney/grprp/internal/duration"
	"github.com/sweeney/grprp/internal/millis"
)

// Next returns the state to move to from curr. If no guard is satisfied it
// returns curr and false, and the machine stays put.
//
// Guards are evaluated in order: a latched stop in a soak state first, then
// the start signal in the locking states, then dwell times. Dwell guards
// use >=, so a state is left on the first poll at or after its duration.
func Next(curr State, elapsed millis.Millis, starting, stopping bool) (State, bool) {
	if next, ok := transition(curr, elapsed, starting, stopping); ok {
		return next, true
	}
	return curr, false
}

func transition(curr State, elapsed millis.Millis, starting, stopping bool) (State, bool) {
	if stopping && curr.IsSoaking() {
		return SoakWaterDraining, true
	}

	switch curr {
	case InitialDraining:
		return after(elapsed, duration.Draining, InitialIdling)

	case InitialIdling:
		if starting {
			return InitialLocking, true
		}

	case InitialLocking:
		if !starting {
			return InitialUnlocking, true
		}
		return after(elapsed, duration.Locking, InitialSetupSeparatorOpening)

	case InitialUnlocking:
		return after(elapsed, duration.Locking, InitialIdling)

	case InitialSetupSeparatorOpening:
		return after(elapsed, duration.SeparatorTransition, InitialSetupWaterPumping)

	case InitialSetupWaterPumping:
		return after(elapsed, duration.WaterPumping, InitialSetupSeparatorClosing)

	case InitialSetupSeparatorClosing:
		return after(elapsed, duration.SeparatorTransition, SoakWaterPumping)

	case SoakWaterPumping:
		return after(elapsed, duration.WaterPumping, SoakWaterDraining)

	case SoakWaterHeating:
		return after(elapsed, duration.Heating, SoakWaterHeatedMixing)

	case SoakWaterHeatedMixing:
		return after(elapsed, duration.HeatedMixing, SoakWaterMixing)

	case SoakWaterMixing:
		return after(elapsed, duration.Mixing, SoakWaterDraining)

	case SoakWaterDraining:
		if stopping {
			return after(elapsed, duration.Draining, Idling)
		}
		return after(elapsed, duration.Draining, RinseWaterPumping)

	case RinseWaterPumping:
		if stopping {
			return RinseWaterDraining, true
		}
		return after(elapsed, duration.Rinsing, RinseWaterDraining)

	case RinseWaterDraining:
		if stopping {
			return after(elapsed, duration.Draining, Idling)
		}
		return after(elapsed, duration.Draining, SeparatorOpening)

	case SeparatorOpening:
		return after(elapsed, duration.SeparatorTransition, SeparatorHolding)

	case SeparatorHolding:
		return after(elapsed, duration.SeparatorHolding, SeparatorClosing)

	case SeparatorClosing:
		return after(elapsed, duration.SeparatorTransition, Blending)

	case Blending:
		return after(elapsed, duration.Blending, PulpDraining)

	case PulpDraining:
		return after(elapsed, duration.Draining, SetupSeparatorOpening)

	case SetupSeparatorOpening:
		return after(elapsed, duration.SeparatorTransition, SetupWaterPumping)

	case SetupWaterPumping:
		return after(elapsed, duration.WaterPumping, SetupSeparatorClosing)

	case SetupSeparatorClosing:
		return after(elapsed, duration.SeparatorTransition, Idling)

	case Idling:
		if starting {
			return Locking, true
		}

	case Locking:
		if !starting {
			return Unlocking, true
		}
		return after(elapsed, duration.Locking, SoakWaterPumping)

	case Unlocking:
		return after(elapsed, duration.Locking, Idling)
	}

	return 0, false
}

// after returns next once elapsed has reached dwell.
func after(elapsed, dwell millis.Millis, next State) (State, bool) {
	if elapsed >= dwell {
		return next, true
	}
	return 0, false
}
