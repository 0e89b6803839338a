package controller

import "github.com/sweeney/grprp/internal/logic"

// Command drives one actuator to a level.
type Command struct {
	Actuator logic.Actuator
	On       bool
}

// Actions are the commands applied when a state is entered and left.
// Actuators not listed keep the level they already hold. A state's exit
// only turns off what its entry turned on, so every actuator an exit names
// is on while the state is active.
type Actions struct {
	Entry []Command
	Exit  []Command
}

func on(a logic.Actuator) Command  { return Command{Actuator: a, On: true} }
func off(a logic.Actuator) Command { return Command{Actuator: a, On: false} }

// Direction lines: low opens the separator hatch and locks the input hatch.
var (
	separatorOpen  = off(logic.SeparatorHatchDirection)
	separatorClose = on(logic.SeparatorHatchDirection)
	hatchLock      = off(logic.InputHatchLockDirection)
	hatchUnlock    = on(logic.InputHatchLockDirection)
)

var (
	draining = Actions{
		Entry: []Command{on(logic.UpperDrainPump)},
		Exit:  []Command{off(logic.UpperDrainPump)},
	}
	idling = Actions{
		Entry: []Command{on(logic.Ready)},
	}
	locking = Actions{
		Entry: []Command{hatchLock, on(logic.InputHatchLockEnable)},
		Exit:  []Command{off(logic.InputHatchLockEnable)},
	}
	unlocking = Actions{
		Entry: []Command{hatchUnlock, on(logic.InputHatchLockEnable)},
		Exit:  []Command{off(logic.InputHatchLockEnable)},
	}
	separatorOpening = Actions{
		Entry: []Command{separatorOpen, on(logic.SeparatorHatchEnable)},
		Exit:  []Command{off(logic.SeparatorHatchEnable)},
	}
	separatorClosing = Actions{
		Entry: []Command{separatorClose, on(logic.SeparatorHatchEnable)},
		Exit:  []Command{off(logic.SeparatorHatchEnable)},
	}
	waterPumping = Actions{
		Entry: []Command{on(logic.WaterPump)},
		Exit:  []Command{off(logic.WaterPump)},
	}
)

// committed turns the ready indicator off once a cycle can no longer be
// backed out of by releasing start.
func committed(a Actions) Actions {
	return Actions{
		Entry: append([]Command{off(logic.Ready)}, a.Entry...),
		Exit:  a.Exit,
	}
}

// table is indexed by state.
var table = [...]Actions{
	logic.InitialDraining: {
		Entry: []Command{on(logic.LowerDrainPump), on(logic.UpperDrainPump)},
		Exit:  []Command{off(logic.LowerDrainPump), off(logic.UpperDrainPump)},
	},
	logic.InitialIdling:                idling,
	logic.InitialLocking:               locking,
	logic.InitialUnlocking:             unlocking,
	logic.InitialSetupSeparatorOpening: committed(separatorOpening),
	logic.InitialSetupWaterPumping:     waterPumping,
	logic.InitialSetupSeparatorClosing: separatorClosing,

	logic.SoakWaterPumping: committed(waterPumping),
	logic.SoakWaterHeating: {
		Entry: []Command{on(logic.Heater)},
		Exit:  []Command{off(logic.Heater)},
	},
	logic.SoakWaterHeatedMixing: {
		Entry: []Command{on(logic.Heater), on(logic.Mixer)},
		Exit:  []Command{off(logic.Heater), off(logic.Mixer)},
	},
	logic.SoakWaterMixing: {
		Entry: []Command{on(logic.Mixer)},
		Exit:  []Command{off(logic.Mixer)},
	},
	logic.SoakWaterDraining: draining,
	// The upper drain pump keeps running while the rinse water goes in.
	logic.RinseWaterPumping: {
		Entry: []Command{on(logic.UpperDrainPump), on(logic.WaterPump)},
		Exit:  []Command{off(logic.UpperDrainPump), off(logic.WaterPump)},
	},
	logic.RinseWaterDraining: draining,
	logic.SeparatorOpening:   separatorOpening,
	logic.SeparatorHolding:   {},
	logic.SeparatorClosing:   separatorClosing,
	logic.Blending: {
		Entry: []Command{on(logic.Blender)},
		Exit:  []Command{off(logic.Blender)},
	},
	logic.PulpDraining: {
		Entry: []Command{on(logic.LowerDrainPump)},
		Exit:  []Command{off(logic.LowerDrainPump)},
	},
	logic.SetupSeparatorOpening: separatorOpening,
	logic.SetupWaterPumping:     waterPumping,
	logic.SetupSeparatorClosing: separatorClosing,

	logic.Idling:    idling,
	logic.Locking:   locking,
	logic.Unlocking: unlocking,
}

// ActionsFor returns the entry and exit commands of s.
func ActionsFor(s logic.State) Actions {
	if int(s) >= len(table) {
		return Actions{}
	}
	return table[s]
}

// Plan returns the commands that move the outputs from state from to state
// to. Exit commands come first, then entry commands. An actuator turned off
// by the exit of from and on by the entry of to is already on and is left
// alone; otherwise an entry command replaces an exit command for the same
// actuator. Each actuator appears at most once.
func Plan(from, to logic.State) []Command {
	exit := ActionsFor(from).Exit
	entry := ActionsFor(to).Entry

	leaving := make(map[logic.Actuator]bool, len(exit))
	for _, cmd := range exit {
		leaving[cmd.Actuator] = true
	}
	entering := make(map[logic.Actuator]bool, len(entry))
	for _, cmd := range entry {
		entering[cmd.Actuator] = true
	}

	cmds := make([]Command, 0, len(exit)+len(entry))
	for _, cmd := range exit {
		if !entering[cmd.Actuator] {
			cmds = append(cmds, cmd)
		}
	}
	for _, cmd := range entry {
		if cmd.On && leaving[cmd.Actuator] {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
