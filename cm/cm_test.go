package cm

import (
	"testing"

	"gopper/axis"
	"gopper/hal"
	"gopper/model"
	"gopper/planner"
	"gopper/standalone/gcode"
)

func newTestCM(t *testing.T) (*CM, *gcode.Parser) {
	t.Helper()
	cfg := DefaultConfig()
	p := planner.New(cfg.Axes, cfg.JunctionAggression, 8)
	return New(cfg, p), gcode.NewParser()
}

func TestProcessLineRapidMoveAdvancesPosition(t *testing.T) {
	c, parser := newTestCM(t)

	st, err := c.ProcessLine(parser, "G0 X10 Y5")
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if st != model.StatOK {
		t.Fatalf("Stat: got %v, want StatOK", st)
	}
	pos := c.Position()
	if pos[axis.X] != 10 || pos[axis.Y] != 5 {
		t.Errorf("Position after G0 X10 Y5: got %v", pos)
	}
}

func TestProcessLineUnknownGWordIsInputError(t *testing.T) {
	c, parser := newTestCM(t)

	st, err := c.ProcessLine(parser, "G999 X1")
	if err == nil {
		t.Fatal("expected an error for an unsupported G word")
	}
	if st != model.StatErr {
		t.Errorf("Stat: got %v, want StatErr", st)
	}
	// Per spec.md §7 the machine keeps running after an input error.
	if c.machineState == model.MachinePanic {
		t.Error("an input error must not raise the panic state")
	}
}

func TestProcessLineZeroLengthMoveIsSilentlyDropped(t *testing.T) {
	c, parser := newTestCM(t)

	st, err := c.ProcessLine(parser, "G0 X0 Y0 Z0")
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if st != model.StatOK {
		t.Errorf("Stat: got %v, want StatOK", st)
	}
}

func TestProcessLineInverseTimeFeedRequiresNonzeroF(t *testing.T) {
	c, parser := newTestCM(t)

	if _, err := c.ProcessLine(parser, "G93"); err != nil {
		t.Fatalf("selecting G93: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G1 X10 F0"); err == nil {
		t.Fatal("expected an error: inverse-time feed with F0")
	}
}

func TestProcessLineG92SetsOriginOffset(t *testing.T) {
	c, parser := newTestCM(t)

	if _, err := c.ProcessLine(parser, "G0 X10"); err != nil {
		t.Fatalf("G0: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G92 X0"); err != nil {
		t.Fatalf("G92: %v", err)
	}
	// G92 X0 at machine position 10 should offset the origin by 10.
	if c.gmx.OriginOffset[axis.X] != 10 {
		t.Errorf("OriginOffset[X]: got %v, want 10", c.gmx.OriginOffset[axis.X])
	}
	if !c.gmx.OriginOffsetEnable {
		t.Error("G92 should enable the origin offset")
	}
}

func TestProcessLineG92_1ResetsOriginOffset(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G0 X10"); err != nil {
		t.Fatalf("G0: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G92 X0"); err != nil {
		t.Fatalf("G92: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G92.1"); err != nil {
		t.Fatalf("G92.1: %v", err)
	}
	if c.gmx.OriginOffsetEnable {
		t.Error("G92.1 should disable the origin offset")
	}
	if c.gmx.OriginOffset != (axis.Vector{}) {
		t.Errorf("OriginOffset after G92.1: got %v, want zero", c.gmx.OriginOffset)
	}
}

func TestProcessLineG10SetsCoordinateOffset(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G10 L2 P1 X5 Y7"); err != nil {
		t.Fatalf("G10: %v", err)
	}
	if c.offsets[model.CoordG54][axis.X] != 5 || c.offsets[model.CoordG54][axis.Y] != 7 {
		t.Errorf("G54 offset after G10 L2 P1: got %v", c.offsets[model.CoordG54])
	}
	// Active coordinate system is G54 by default, so WorkOffset follows.
	if c.gm.WorkOffset[axis.X] != 5 {
		t.Errorf("WorkOffset[X] after G10 on the active system: got %v, want 5", c.gm.WorkOffset[axis.X])
	}
}

func TestProcessLineSoftLimitViolationIsSemanticError(t *testing.T) {
	c, parser := newTestCM(t)
	c.Config.Axes[axis.X].TravelMin = 0
	c.Config.Axes[axis.X].TravelMax = 100

	st, err := c.ProcessLine(parser, "G0 X500")
	if err == nil {
		t.Fatal("expected a soft-limit violation error")
	}
	if st != model.StatErr {
		t.Errorf("Stat: got %v, want StatErr", st)
	}
}

func TestProcessLineIncrementalDistanceMode(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G91"); err != nil {
		t.Fatalf("G91: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G0 X5"); err != nil {
		t.Fatalf("first incremental move: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G0 X5"); err != nil {
		t.Fatalf("second incremental move: %v", err)
	}
	if got := c.Position()[axis.X]; got != 10 {
		t.Errorf("Position[X] after two incremental +5 moves: got %v, want 10", got)
	}
}

// fakeHold records RequestHold/CancelHold calls, standing in for a Runtime
// so cm_test can assert the realtime commands actually reach it rather than
// only flipping the CM's own bookkeeping enum.
type fakeHold struct {
	requested int
	cancelled int
}

func (f *fakeHold) RequestHold() { f.requested++ }
func (f *fakeHold) CancelHold()  { f.cancelled++ }

func TestRealtimeCommandFeedHoldAndCycleStart(t *testing.T) {
	c, parser := newTestCM(t)
	hold := &fakeHold{}
	c.AttachRuntime(hold)

	if _, err := c.ProcessLine(parser, "G1 F100 X10"); err != nil {
		t.Fatalf("G1: %v", err)
	}

	if st := c.RealtimeCommand('!'); st != model.StatOK {
		t.Fatalf("feed hold: got %v, want StatOK", st)
	}
	if c.holdState != model.HoldRequested {
		t.Errorf("holdState after '!': got %v, want HoldRequested", c.holdState)
	}
	if hold.requested != 1 {
		t.Errorf("RequestHold calls after '!': got %d, want 1", hold.requested)
	}

	if st := c.RealtimeCommand('~'); st != model.StatOK {
		t.Fatalf("cycle start: got %v, want StatOK", st)
	}
	if c.holdState != model.HoldOff {
		t.Errorf("holdState after '~': got %v, want HoldOff", c.holdState)
	}
	if hold.cancelled != 1 {
		t.Errorf("CancelHold calls after '~': got %d, want 1", hold.cancelled)
	}
}

func TestRealtimeCommandResetClearsStateAndTearsDownRing(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G1 F100 X10"); err != nil {
		t.Fatalf("G1: %v", err)
	}

	if st := c.RealtimeCommand(24); st != model.StatOK {
		t.Fatalf("reset (^X): got %v, want StatOK", st)
	}
	if c.machineState != model.MachineReady {
		t.Errorf("MachineState after reset: got %v, want MachineReady", c.machineState)
	}
	if !c.planner.IsIdle() {
		t.Error("planner should be idle after a reset, including any block in flight")
	}
}

func TestRealtimeCommandQueueFlushPreservesRunningBlock(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G1 F100 X10"); err != nil {
		t.Fatalf("first move: %v", err)
	}
	p := c.planner.(*planner.Planner)
	running := p.PopRunnable()
	if running == nil {
		t.Fatal("expected a runnable block")
	}
	if _, err := c.ProcessLine(parser, "G1 X20"); err != nil {
		t.Fatalf("second move: %v", err)
	}

	if st := c.RealtimeCommand('%'); st != model.StatOK {
		t.Fatalf("queue-flush: got %v, want StatOK", st)
	}
	if p.IsIdle() {
		t.Error("the already-running block should survive a queue-flush")
	}
}

func TestTickIntegrityFailureRaisesPanicState(t *testing.T) {
	c, parser := newTestCM(t)
	if _, err := c.ProcessLine(parser, "G1 F100 X10"); err != nil {
		t.Fatalf("G1: %v", err)
	}

	c.gmx.MagicStart = 0 // corrupt the guard directly

	if st := c.Tick(); st != model.StatErr {
		t.Fatalf("Tick after corrupting gmx: got %v, want StatErr", st)
	}
	if got := c.CombinedState(); got != model.StatePanic {
		t.Errorf("CombinedState after integrity failure: got %v, want StatePanic", got)
	}
	if c.machineState != model.MachinePanic {
		t.Errorf("MachineState after integrity failure: got %v, want MachinePanic", c.machineState)
	}
}

func TestStartHomingRunsToCompletion(t *testing.T) {
	c, _ := newTestCM(t)

	var sw hal.MockSwitch
	c.SetSwitch(axis.X, &sw)

	if st := c.StartHoming(axis.X); st != model.StatOK {
		t.Fatalf("StartHoming: got %v, want StatOK", st)
	}

	// Drive the cycle: the switch trips on the first search tick, then the
	// remaining stages each resolve in one tick apiece.
	sw.Set(true)
	const maxTicks = 32
	i := 0
	for ; i < maxTicks; i++ {
		if c.cycleState == model.CycleOff {
			break
		}
		c.Tick()
	}
	if i >= maxTicks {
		t.Fatal("homing cycle never completed")
	}
	if got := c.Position()[axis.X]; got != 0 {
		t.Errorf("Position[X] after homing: got %v, want 0", got)
	}
}

func TestProbeCycleStopsOnSwitchTrip(t *testing.T) {
	c, parser := newTestCM(t)

	var sw hal.MockSwitch
	c.SetSwitch(axis.Z, &sw)

	if _, err := c.ProcessLine(parser, "G1 F600"); err != nil {
		t.Fatalf("priming feed rate: %v", err)
	}
	if _, err := c.ProcessLine(parser, "G38.2 Z-50"); err != nil {
		t.Fatalf("G38.2: %v", err)
	}
	if c.cycleState != model.CycleProbe {
		t.Fatalf("cycleState after G38.2: got %v, want CycleProbe", c.cycleState)
	}

	sw.Set(true)
	const maxTicks = 8
	i := 0
	for ; i < maxTicks && c.cycleState != model.CycleOff; i++ {
		c.Tick()
	}
	if i >= maxTicks {
		t.Fatal("probe cycle never completed")
	}
	if hit, _ := c.ProbeResult(); !hit {
		t.Error("probe should report a hit once the switch trips")
	}
}

func TestProbeResultReportsMiss(t *testing.T) {
	c, _ := newTestCM(t)
	if hit, _ := c.ProbeResult(); hit {
		t.Error("a fresh CM should report no probe hit")
	}
}

func TestCombinedStateReflectsMachineState(t *testing.T) {
	c, _ := newTestCM(t)
	if got := c.CombinedState(); got != model.StateReady {
		t.Errorf("fresh CM CombinedState: got %v, want StateReady", got)
	}
}
