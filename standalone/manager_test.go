package standalone

import (
	"testing"

	"gopper/core"
	"gopper/standalone/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.DefaultCartesianConfig()
	mgr, err := NewManagerWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewManagerWithConfig: %v", err)
	}
	return mgr
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultCartesianConfig()
	x := cfg.Axes["x"]
	x.MaxVelocity = 0
	cfg.Axes["x"] = x

	if _, err := NewManagerWithConfig(cfg); err == nil {
		t.Fatal("expected NewManagerWithConfig to reject an invalid config")
	}
}

func TestInitializeIsOneShot(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if err := mgr.Initialize(nil, nil); err == nil {
		t.Fatal("a second Initialize call should be rejected")
	}
}

func TestStartRequiresInitialize(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Start(); err == nil {
		t.Fatal("Start before Initialize should fail")
	}

	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start after Initialize: %v", err)
	}
	if !mgr.IsRunning() {
		t.Error("IsRunning should be true after Start")
	}
}

func TestProcessLineEnqueuesMove(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := mgr.ProcessLine("G0 X10 Y5"); err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	report := mgr.StatusReport()
	_ = report // structured report; just confirm the call doesn't panic

	if mgr.planner.IsIdle() {
		t.Error("planner should hold the just-enqueued block")
	}
}

func TestProcessByteBuffersUntilNewline(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mgr.GetOutput() // discard the "Ready" banner from Start

	for _, b := range []byte("G0 X1") {
		mgr.ProcessByte(b)
	}
	if out := mgr.GetOutput(); len(out) != 0 {
		t.Fatalf("no output expected before a line terminator, got %q", out)
	}

	mgr.ProcessByte('\n')
	out := mgr.GetOutput()
	if string(out) != "ok\n" {
		t.Errorf("response after a valid line: got %q, want \"ok\\n\"", out)
	}
}

func TestProcessByteReportsErrorResponse(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	mgr.GetOutput()

	for _, b := range []byte("G999\n") {
		mgr.ProcessByte(b)
	}
	out := mgr.GetOutput()
	if len(out) == 0 || string(out) == "ok\n" {
		t.Errorf("expected an error response for an unsupported G word, got %q", out)
	}
}

func TestStopFlushesPlanner(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mgr.ProcessLine("G1 F100 X10"); err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	mgr.Stop()
	if mgr.IsRunning() {
		t.Error("IsRunning should be false after Stop")
	}
	if !mgr.planner.IsIdle() {
		t.Error("planner should be idle after Stop: the queued block never started running")
	}
}

func TestEmergencyStopResetsPlannerAndMachine(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(nil, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mgr.ProcessLine("G1 F100 X10"); err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	mgr.EmergencyStop()
	if !mgr.planner.IsIdle() {
		t.Error("planner should be fully idle after EmergencyStop, including any block in flight")
	}
}

func TestAxisIndexForNameAcceptsBothCases(t *testing.T) {
	for _, name := range []string{"x", "X", "a", "A"} {
		if _, ok := axisIndexForName(name); !ok {
			t.Errorf("axisIndexForName(%q) should succeed", name)
		}
	}
	if _, ok := axisIndexForName("q"); ok {
		t.Error("axisIndexForName(\"q\") should fail: q is not a canonical axis letter")
	}
}

func TestInitializeAttachesOnlyKnownAxisNames(t *testing.T) {
	mgr := newTestManager(t)
	backends := map[string]core.StepperBackend{
		"not-an-axis": nil,
	}
	if err := mgr.Initialize(nil, backends); err != nil {
		t.Fatalf("Initialize should skip unknown axis names rather than error: %v", err)
	}
}
