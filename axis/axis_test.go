package axis

import (
	"math"
	"testing"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector{1, 2, 3, 4, 5, 6}
	b := Vector{10, 20, 30, 40, 50, 60}

	sum := a.Add(b)
	want := Vector{11, 22, 33, 44, 55, 66}
	if sum != want {
		t.Errorf("Add: got %v, want %v", sum, want)
	}

	diff := b.Sub(a)
	want = Vector{9, 18, 27, 36, 45, 54}
	if diff != want {
		t.Errorf("Sub: got %v, want %v", diff, want)
	}

	scaled := a.Scale(2)
	want = Vector{2, 4, 6, 8, 10, 12}
	if scaled != want {
		t.Errorf("Scale: got %v, want %v", scaled, want)
	}
}

func TestVectorLengthAndUnit(t *testing.T) {
	v := Vector{3, 4, 0, 0, 0, 0}
	if got := v.Length(); math.Abs(got-5) > 1e-9 {
		t.Errorf("Length: got %v, want 5", got)
	}

	u := v.Unit()
	if got := u.Length(); math.Abs(got-1) > 1e-9 {
		t.Errorf("Unit length: got %v, want 1", got)
	}

	if got := (Vector{}).Unit(); got != (Vector{}) {
		t.Errorf("Unit of zero vector: got %v, want zero vector", got)
	}
}

func TestVectorDot(t *testing.T) {
	a := Vector{1, 0, 0, 0, 0, 0}
	b := Vector{0, 1, 0, 0, 0, 0}
	if got := a.Dot(b); got != 0 {
		t.Errorf("Dot of orthogonal vectors: got %v, want 0", got)
	}
	if got := a.Dot(a); got != 1 {
		t.Errorf("Dot of unit vector with itself: got %v, want 1", got)
	}
}

func TestToMMAndToInches(t *testing.T) {
	if got := ToMM(1, Inches); math.Abs(got-25.4) > 1e-9 {
		t.Errorf("ToMM(1in): got %v, want 25.4", got)
	}
	if got := ToMM(10, Millimeters); got != 10 {
		t.Errorf("ToMM(10mm): got %v, want 10", got)
	}
	if got := ToInches(25.4); math.Abs(got-1) > 1e-9 {
		t.Errorf("ToInches(25.4): got %v, want 1", got)
	}
}

func TestConfigWithinLimits(t *testing.T) {
	c := Config{TravelMin: 0, TravelMax: 220}
	cases := []struct {
		target float64
		want   bool
	}{
		{-1, false},
		{0, true},
		{110, true},
		{220, true},
		{221, false},
	}
	for _, tc := range cases {
		if got := c.WithinLimits(tc.target); got != tc.want {
			t.Errorf("WithinLimits(%v): got %v, want %v", tc.target, got, tc.want)
		}
	}
}

func TestConfigWithinLimitsDisabled(t *testing.T) {
	c := DefaultConfig() // infinite travel envelope
	if c.SoftLimitsEnabled() {
		t.Errorf("DefaultConfig should have soft limits disabled")
	}
	if !c.WithinLimits(1e9) || !c.WithinLimits(-1e9) {
		t.Errorf("WithinLimits should accept any target when limits are disabled")
	}
}

func TestConfigRecipJerk(t *testing.T) {
	c := Config{JerkMax: 1000}
	if got := c.RecipJerk(); math.Abs(got-0.001) > 1e-12 {
		t.Errorf("RecipJerk: got %v, want 0.001", got)
	}
	// Cached value must stay stable even if JerkMax is mutated afterward.
	c.JerkMax = 1
	if got := c.RecipJerk(); math.Abs(got-0.001) > 1e-12 {
		t.Errorf("RecipJerk after mutation: got %v, want cached 0.001", got)
	}
}

func TestConfigToAxisTargetRadiusMode(t *testing.T) {
	c := Config{Mode: ModeRadius, Radius: 10}
	// Full circumference (2*pi*10 mm) should map to 360 degrees.
	circumference := 2 * math.Pi * 10
	if got := c.ToAxisTarget(circumference); math.Abs(got-360) > 1e-6 {
		t.Errorf("ToAxisTarget(circumference): got %v, want 360", got)
	}
}

func TestIndexString(t *testing.T) {
	cases := map[Index]string{X: "X", Y: "Y", Z: "Z", A: "A", B: "B", C: "C"}
	for idx, want := range cases {
		if got := idx.String(); got != want {
			t.Errorf("%d.String(): got %q, want %q", idx, got, want)
		}
	}
	if got := Count.String(); got != "?" {
		t.Errorf("Count.String(): got %q, want \"?\"", got)
	}
}

func TestIndexLinear(t *testing.T) {
	for _, idx := range []Index{X, Y, Z} {
		if !idx.Linear() {
			t.Errorf("%v should be linear", idx)
		}
	}
	for _, idx := range []Index{A, B, C} {
		if idx.Linear() {
			t.Errorf("%v should not be linear", idx)
		}
	}
}

func TestDefaultSetDisablesRotaryAxes(t *testing.T) {
	s := DefaultSet()
	for _, idx := range []Index{X, Y, Z} {
		if s[idx].Mode != ModeStandard {
			t.Errorf("axis %v: got mode %v, want ModeStandard", idx, s[idx].Mode)
		}
	}
	for _, idx := range []Index{A, B, C} {
		if s[idx].Mode != ModeDisabled {
			t.Errorf("axis %v: got mode %v, want ModeDisabled", idx, s[idx].Mode)
		}
	}
}
