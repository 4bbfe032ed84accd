package model

import "testing"

func TestDefaultGCodeStateExtendedMagicOK(t *testing.T) {
	g := DefaultGCodeStateExtended()
	if !g.MagicOK() {
		t.Fatal("a freshly constructed extended state should pass its magic-word check")
	}
	if !g.FeedRateOverrideEnable || g.FeedRateOverride != 1.0 {
		t.Errorf("feed override should default to enabled at unity, got enable=%v value=%v",
			g.FeedRateOverrideEnable, g.FeedRateOverride)
	}
}

func TestGCodeStateExtendedMagicOKDetectsCorruption(t *testing.T) {
	g := DefaultGCodeStateExtended()
	g.MagicStart = 0
	if g.MagicOK() {
		t.Fatal("MagicOK should fail once MagicStart has been overwritten")
	}
}

func TestDefaultGCodeStateModalDefaults(t *testing.T) {
	s := DefaultGCodeState()
	if s.MotionMode != MotionRapid {
		t.Errorf("MotionMode: got %v, want MotionRapid", s.MotionMode)
	}
	if s.UnitsMode != UnitsMM {
		t.Errorf("UnitsMode: got %v, want UnitsMM", s.UnitsMode)
	}
	if s.DistanceMode != DistanceAbsolute {
		t.Errorf("DistanceMode: got %v, want DistanceAbsolute", s.DistanceMode)
	}
	if s.CoordSystem != CoordG54 {
		t.Errorf("CoordSystem: got %v, want CoordG54", s.CoordSystem)
	}
	if s.PathControl != PathContinuous {
		t.Errorf("PathControl: got %v, want PathContinuous", s.PathControl)
	}
}
