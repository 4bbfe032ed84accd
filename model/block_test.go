package model

import "testing"

func TestNewBlockMagicOK(t *testing.T) {
	b := NewBlock()
	if !b.MagicOK() {
		t.Fatal("a freshly constructed block should pass its magic-word check")
	}
	if b.MoveState != MoveStateEmpty {
		t.Errorf("MoveState: got %v, want MoveStateEmpty", b.MoveState)
	}
}

func TestBlockMagicOKDetectsCorruption(t *testing.T) {
	b := NewBlock()
	b.MagicEnd = 0xdeadbeef
	if b.MagicOK() {
		t.Fatal("MagicOK should fail when MagicEnd has been overwritten")
	}
}

func TestBlockResetPreservesMagicClearsContent(t *testing.T) {
	b := NewBlock()
	b.Length = 42
	b.MoveTime = 1.5
	b.MoveState = MoveStateRunning
	b.ReplanAllowed = true

	b.Reset()

	if !b.MagicOK() {
		t.Error("Reset must preserve the magic-word guards")
	}
	if b.Length != 0 {
		t.Errorf("Reset should clear Length, got %v", b.Length)
	}
	if b.MoveTime != 0 {
		t.Errorf("Reset should clear MoveTime, got %v", b.MoveTime)
	}
	if b.MoveState != MoveStateEmpty {
		t.Errorf("Reset should set MoveState to MoveStateEmpty, got %v", b.MoveState)
	}
	if b.ReplanAllowed {
		t.Error("Reset should clear ReplanAllowed")
	}
}
