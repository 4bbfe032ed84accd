// Package cm implements the Canonical Machine (spec.md §4.1): it holds the
// authoritative G-code model (gm) and extended model (gmx), accepts
// semantic calls derived from a tokenised block, resolves coordinate
// systems/units/distance-mode/axis-mode transformations, and dispatches
// motion to the Planner while driving the program-flow, feed-hold, homing
// and probing sub-state machines.
package cm

import (
	"gopper/axis"
	"gopper/core"
	"gopper/hal"
	"gopper/model"
	"gopper/standalone/gcode"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PlannerPort is the CM's view of the Planner (spec.md §2, §4.3): motion
// requests are submitted through it, and it is the single source of truth
// for "where the tool currently is" from the CM's point of view (the last
// target it was handed, not yet necessarily executed).
type PlannerPort interface {
	// Enqueue submits a line move with the given modal context and
	// absolute canonical target. Returns model.StatEagain if the ring is
	// full (spec.md §5 "every queueing call ... is non-blocking").
	Enqueue(state model.GCodeState, target axis.Vector) model.Stat

	// LastTarget returns the absolute canonical position of the most
	// recently enqueued (not necessarily executed) block.
	LastTarget() axis.Vector

	// SetPosition resets the planner/runtime's notion of current position
	// without commanding motion (used when homing sets an axis zero, and by
	// reset).
	SetPosition(pos axis.Vector)

	// Flush drops all queued-but-not-yet-running blocks (§6.2 '%').
	Flush()

	// Reset tears down the entire ring, including a block in flight (§6.2
	// ^X, the harsher counterpart to Flush).
	Reset()

	// IsIdle reports whether the planner ring and runtime are empty.
	IsIdle() bool

	// EnqueueDwell queues a G4 dwell (spec.md §4.1 step 4: "queued, so it
	// participates in ordering").
	EnqueueDwell(seconds float64) model.Stat

	// CheckIntegrity returns the ring index of every occupied block whose
	// magic-word guards no longer match (spec.md §3.5).
	CheckIntegrity() []int
}

// HoldPort is the CM's view of the Runtime's feed-hold controls (spec.md
// §5 "Feed-hold takes effect at the next segment boundary"): the CM only
// signals intent, the Runtime does the actual tail-reshaping math since it
// alone knows the in-flight block's instantaneous velocity.
type HoldPort interface {
	RequestHold()
	CancelHold()
}

// Config is the CM's static configuration: per-axis limits plus the
// cornering/override knobs spec.md §9 leaves as config (junction
// aggression has no canonical default; see DESIGN.md Open Question).
type Config struct {
	Axes              axis.Set
	JunctionAggression float64
	ChordalTolerance   float64 // mm, for the arc generator
	MinLineLength      float64 // mm, below which a move becomes null
	MinArcSegmentLen   float64 // mm
}

// DefaultConfig mirrors standalone/config.DefaultCartesianConfig's defaults,
// generalized to the six-axis canonical model.
func DefaultConfig() Config {
	return Config{
		Axes:               axis.DefaultSet(),
		JunctionAggression: 1.0,
		ChordalTolerance:   0.01,
		MinLineLength:      0.001,
		MinArcSegmentLen:   0.001,
	}
}

// CM is the canonical machine: the single authoritative G-code model plus
// the sub-state machines layered over it. Callers receive it by value-ish
// handle (a pointer) rather than reaching a process-wide global, per
// spec.md §9's "singleton machine struct" re-architecture note.
type CM struct {
	Config Config

	gm  model.GCodeState
	gmx model.GCodeStateExtended
	am  *model.GCodeState // active model: &gm unless a cycle is staging a probe/homing move

	offsets [model.CoordSystemCount]axis.Vector // G54..G59 work offset table

	machineState model.MachineState
	cycleState   model.CycleState
	motionState  model.MotionState
	holdState    model.HoldState

	planner  PlannerPort
	hold     HoldPort // nil until AttachRuntime is called; fine to leave unset where motion never runs
	switches [axis.Count]hal.Switch

	homing  *homingCycle
	probing *probeCycle

	// arcGen is non-nil while an arc is mid-decomposition; the CM drives it
	// to completion one segment per ProcessBlock-equivalent call before
	// accepting new input, per spec.md §9's "iterator owned by the CM".
	arcGen *arcState

	lastProbeHit bool
	lastProbePos axis.Vector
}

// New creates a canonical machine bound to the given planner.
func New(cfg Config, planner PlannerPort) *CM {
	c := &CM{
		Config:       cfg,
		gm:           model.DefaultGCodeState(),
		gmx:          model.DefaultGCodeStateExtended(),
		machineState: model.MachineInitializing,
		planner:      planner,
	}
	c.am = &c.gm
	for i := range c.offsets {
		c.offsets[i] = axis.Vector{}
	}
	c.machineState = model.MachineReady
	return c
}

// SetSwitch registers the homing/limit/probe switch for one axis.
func (c *CM) SetSwitch(i axis.Index, sw hal.Switch) { c.switches[i] = sw }

// AttachRuntime wires the realtime feed-hold commands through to the
// Runtime instance that actually reshapes the in-flight block's tail.
func (c *CM) AttachRuntime(hold HoldPort) { c.hold = hold }

// CombinedState derives the observable state per spec.md §6.3.
func (c *CM) CombinedState() model.CombinedState {
	return model.Combine(c.machineState, c.cycleState, c.motionState, c.holdState)
}

// GCodeState returns a copy of the active modal state (read-only view).
func (c *CM) GCodeState() model.GCodeState { return *c.am }

// Position returns the canonical machine position (spec.md §3.2 gmx.position).
func (c *CM) Position() axis.Vector { return c.gmx.Position }

// StatusReport builds the structured record of spec.md §6.4.
func (c *CM) StatusReport() model.StatusReport {
	work := c.gmx.Position.Sub(c.gm.WorkOffset)
	if c.gmx.OriginOffsetEnable {
		work = work.Sub(c.gmx.OriginOffset)
	}
	return model.StatusReport{
		LineNumber:    c.gm.LineNumber,
		MachinePos:    [6]float64(c.gmx.Position),
		WorkPos:       [6]float64(work),
		Velocity:      c.gm.FeedRate,
		FeedRate:      c.gm.FeedRate,
		MotionMode:    c.gm.MotionMode,
		CombinedState: c.CombinedState(),
		CoordSystem:   c.gm.CoordSystem,
		UnitsMode:     c.gm.UnitsMode,
		DistanceMode:  c.gm.DistanceMode,
		SelectPlane:   c.gm.SelectPlane,
		FeedRateMode:  c.gm.FeedRateMode,
		Tool:          c.gm.Tool,
	}
}

// ProcessLine tokenises and executes one line of input (spec.md §6.1).
// Input/semantic errors are reported and the block discarded; the machine
// continues (spec.md §7) — only runtime assertions and alarms change
// machine_state.
func (c *CM) ProcessLine(parser *gcode.Parser, line string) (model.Stat, error) {
	if c.arcGen != nil {
		return model.StatErr, errors.New("cm: cannot accept new input while an arc is mid-decomposition")
	}

	blk, err := parser.ParseLine(line)
	if err != nil {
		return model.StatErr, model.NewError(model.ErrInput, errors.Wrap(err, "tokenise"))
	}
	if blk == nil {
		return model.StatNoop, nil
	}
	if blk.BlockDelete && c.gmx.BlockDeleteSwitch {
		return model.StatNoop, nil
	}

	return c.Execute(blk)
}

// RealtimeCommand applies a single-character real-time command (spec.md
// §6.2), parsed ahead of the line buffer by the serial layer.
func (c *CM) RealtimeCommand(ch byte) model.Stat {
	switch ch {
	case '!':
		return c.requestFeedHold()
	case '~':
		return c.cycleStart()
	case '%':
		c.planner.Flush()
		return model.StatOK
	case 24: // ^X, i.e. Ctrl-X
		return c.reset()
	default:
		return model.StatNoop
	}
}

func (c *CM) requestFeedHold() model.Stat {
	if c.holdState == model.HoldOff && c.motionState == model.MotionRun2 {
		c.holdState = model.HoldRequested
		if c.hold != nil {
			c.hold.RequestHold()
		}
	}
	return model.StatOK
}

func (c *CM) cycleStart() model.Stat {
	switch {
	case c.holdState != model.HoldOff:
		c.holdState = model.HoldOff
		if c.hold != nil {
			c.hold.CancelHold()
		}
	case c.machineState == model.MachineProgramStop:
		c.machineState = model.MachineReady
	}
	return model.StatOK
}

func (c *CM) reset() model.Stat {
	c.planner.Reset()
	if c.hold != nil {
		c.hold.CancelHold()
	}
	c.gm = model.DefaultGCodeState()
	c.gmx = model.DefaultGCodeStateExtended()
	c.planner.SetPosition(c.gmx.Position)
	c.am = &c.gm
	c.machineState = model.MachineReady
	c.cycleState = model.CycleOff
	c.motionState = model.MotionStop
	c.holdState = model.HoldOff
	c.arcGen = nil
	c.homing = nil
	c.probing = nil
	core.DebugPrintln("[CM] reset")
	return model.StatOK
}

// Tick advances any in-progress cycle (homing, probing, arc decomposition,
// feed-hold). It must be called from the main super-loop each pass
// (spec.md §5): each task is run-to-completion-non-blocking.
func (c *CM) Tick() model.Stat {
	if err := c.assertIntegrity(); err != nil {
		core.DebugPrintln("[CM] integrity check failed: " + err.Error())
		return model.StatErr
	}
	if c.holdState == model.HoldRequested {
		c.holdState = model.HoldDecelerating
	}
	if c.arcGen != nil {
		return c.stepArc()
	}
	if c.homing != nil {
		return c.stepHoming()
	}
	if c.probing != nil {
		return c.stepProbing()
	}
	return model.StatNoop
}

// assertIntegrity walks every magic-word guard in the extended state and
// the planner ring (spec.md §3.5), accumulating every mismatch found in
// one sweep rather than stopping at the first: a single overrun can
// corrupt more than one neighboring slot, and reporting only the first
// would hide the rest. Any mismatch is fatal and raises the panic state.
func (c *CM) assertIntegrity() error {
	var errs error
	if !c.gmx.MagicOK() {
		errs = multierr.Append(errs, errors.New("gmx magic word mismatch"))
	}
	for _, i := range c.planner.CheckIntegrity() {
		errs = multierr.Append(errs, errors.Errorf("planner block %d magic word mismatch", i))
	}
	if errs != nil {
		c.machineState = model.MachinePanic
		return model.NewError(model.ErrRuntimeAssertion, errs)
	}
	return nil
}
