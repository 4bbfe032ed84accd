package hal

import "testing"

func TestMockSwitch(t *testing.T) {
	var sw MockSwitch
	if sw.Triggered() {
		t.Fatal("a fresh MockSwitch should start untriggered")
	}
	sw.Set(true)
	if !sw.Triggered() {
		t.Fatal("Set(true) should make Triggered report true")
	}
	sw.Set(false)
	if sw.Triggered() {
		t.Fatal("Set(false) should make Triggered report false")
	}
}

func TestMockRtc(t *testing.T) {
	var rtc MockRtc
	if rtc.Ticks() != 0 {
		t.Fatalf("a fresh MockRtc should start at 0 ticks, got %d", rtc.Ticks())
	}
	rtc.Advance(5)
	rtc.Advance(3)
	if got := rtc.Ticks(); got != 8 {
		t.Fatalf("Ticks after Advance(5)+Advance(3): got %d, want 8", got)
	}
}

var (
	_ Switch = (*MockSwitch)(nil)
	_ Rtc    = (*MockRtc)(nil)
)
