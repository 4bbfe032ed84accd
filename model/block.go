package model

import "gopper/axis"

// MoveType classifies what a ring slot represents (spec.md §3.3).
type MoveType int

const (
	MoveNull MoveType = iota // geometric degeneracy: skipped by the runtime
	MoveLine                 // "aline": a straight or arc-decomposed segment
	MoveDwell                // G4
	MoveCommand               // a queued non-motion side effect (spindle, tool, ...)
	MoveStop
	MoveEnd
)

// MoveState tracks a block's position in the planner pipeline.
type MoveState int

const (
	MoveStateEmpty MoveState = iota
	MoveStateQueued
	MoveStatePlanned
	MoveStateRunning
	MoveStateDone
)

// PlanHint caches the last planning outcome for a block, so a re-plan that
// revisits an unchanged block can skip redundant work (spec.md §3.3).
type PlanHint int

const (
	HintNone PlanHint = iota
	HintSameAsFit      // head/body/tail unchanged since last pass
	HintPerfectAccel
	HintPerfectDecel
)

const blockMagic = 0x426c6f63 // "Bloc", per spec.md §3.5

// Block is one slot of the planner ring (spec.md §3.3): it carries a copy
// of the GCodeState so the modal context that was active when it was
// admitted travels with it through planning and execution, plus the
// move's geometry, velocities, jerk-profile lengths and buffer linkage.
//
// Per spec.md §9, the ring itself is an array with cursor indices, not
// pointers: Block carries no Prev/Next fields, because the planner ring
// (see package planner) tracks ordering implicitly via modular indices.
type Block struct {
	MagicStart uint32

	State GCodeState // modal context captured at admission time

	Length     float64     // mm
	MoveTime   float64     // seconds; dwell duration for MoveDwell, unused otherwise
	UnitVector axis.Vector // direction cosines
	Target     axis.Vector // absolute canonical coordinates
	Start      axis.Vector // absolute canonical coordinates at block entry

	EntryVelocity  float64
	CruiseVelocity float64
	ExitVelocity   float64

	EntryVmax   float64
	CruiseVmax  float64
	ExitVmax    float64
	BrakingVelocity float64

	HeadLength float64
	BodyLength float64
	TailLength float64

	Jerk      float64
	RecipJerk float64
	CbrtJerk  float64

	MoveType  MoveType
	MoveState MoveState
	Hint      PlanHint

	// ReplanAllowed is cleared the instant the runtime starts consuming
	// this block: a block held by the runtime has its velocities frozen
	// (spec.md §5).
	ReplanAllowed bool

	MagicEnd uint32
}

// Reset clears a block back to the empty state so it can be reused by the
// ring's next writer without reallocating (spec.md §3.6 lifecycle).
func (b *Block) Reset() {
	magicStart, magicEnd := b.MagicStart, b.MagicEnd
	*b = Block{}
	b.MagicStart, b.MagicEnd = magicStart, magicEnd
	b.MoveState = MoveStateEmpty
}

// NewBlock returns a zeroed block with its integrity guards armed.
func NewBlock() Block {
	return Block{MagicStart: blockMagic, MagicEnd: blockMagic, MoveState: MoveStateEmpty}
}

// MagicOK reports whether both guard words still match the fixed constant
// (spec.md §3.5); a mismatch is a fatal "memory corruption" condition.
func (b *Block) MagicOK() bool {
	return b.MagicStart == blockMagic && b.MagicEnd == blockMagic
}

// Segment is the runtime's unit of work (spec.md §3.4): constant
// acceleration over SegmentTime, with per-axis signed step counts and a
// DDA period in timer ticks. Segments are never queued as data; the
// runtime is itself the queue's single reader and synthesises them on
// demand from the block it is currently executing.
type Segment struct {
	Velocity    float64        // mm/min at the segment midpoint
	Length      float64        // mm
	SegmentTime float64        // seconds
	Steps       [axis.Count]int32
	DDAPeriod   uint32 // timer ticks per step of the fastest axis

	// Final marks the last, explicit segment of a block: it drives the
	// remaining sub-quantum distance so the endpoint is bit-exact
	// (spec.md §4.4 "Finalisation").
	Final bool
}
