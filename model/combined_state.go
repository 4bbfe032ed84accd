package model

// MachineState is the top-level machine lifecycle (spec.md §4.1, §7).
type MachineState int

const (
	MachineInitializing MachineState = iota
	MachineReady
	MachineAlarm
	MachineProgramStop
	MachineProgramEnd
	MachineRun
	MachinePanic
	MachineShutdown
)

// CycleState distinguishes which, if any, motion cycle owns the machine.
type CycleState int

const (
	CycleOff CycleState = iota
	CycleCycle
	CycleHoming
	CycleProbe
	CycleJog
)

// MotionState is the low-level motion status.
type MotionState int

const (
	MotionStop MotionState = iota
	MotionRun2 // moving
	MotionHold2
)

// HoldState is the feed-hold sub-state machine.
type HoldState int

const (
	HoldOff HoldState = iota
	HoldRequested
	HoldDecelerating
	HoldHeld
)

// CombinedState is the observable enum exposed for UI (spec.md §6.3),
// 0..13, derived from (machine_state, cycle_state, motion_state, hold_state).
type CombinedState int

const (
	StateInitializing CombinedState = iota
	StateReady
	StateAlarm
	StateProgramStop
	StateProgramEnd
	StateRun
	StateHold
	StateProbe
	StateCycle
	StateHoming
	StateJog
	StateInterlock
	StateShutdown
	StatePanic
)

// Combine derives the observable combined state from the four underlying
// sub-state machines. The mapping is table-driven and is part of the
// observable contract (spec.md §6.3): a hold takes priority over any
// cycle, a cycle over plain run, and run over the idle ready state.
func Combine(machine MachineState, cycle CycleState, motion MotionState, hold HoldState) CombinedState {
	switch machine {
	case MachinePanic:
		return StatePanic
	case MachineShutdown:
		return StateShutdown
	case MachineAlarm:
		return StateAlarm
	case MachineInitializing:
		return StateInitializing
	case MachineProgramStop:
		return StateProgramStop
	case MachineProgramEnd:
		return StateProgramEnd
	}

	if hold != HoldOff {
		return StateHold
	}

	switch cycle {
	case CycleHoming:
		return StateHoming
	case CycleProbe:
		return StateProbe
	case CycleJog:
		return StateJog
	case CycleCycle:
		return StateCycle
	}

	if motion == MotionRun2 {
		return StateRun
	}

	return StateReady
}

// StatusReport is the structured record emitted on demand or at configured
// intervals (spec.md §6.4). Formatting it to JSON/text is out of scope;
// this struct is the in-scope contract a formatter downstream would serialize.
type StatusReport struct {
	LineNumber    int
	MachinePos    [6]float64
	WorkPos       [6]float64
	Velocity      float64
	FeedRate      float64
	MotionMode    MotionMode
	CombinedState CombinedState
	CoordSystem   CoordSystem
	UnitsMode     UnitsMode
	DistanceMode  DistanceMode
	SelectPlane   Plane
	FeedRateMode  FeedRateMode
	Tool          int
}
