// Package planner implements the jerk-limited look-ahead trajectory
// planner (spec.md §4.3): a fixed-capacity ring of model.Block, backward
// and forward passes that maximise junction velocity subject to per-axis
// jerk, and head/body/tail profile assignment. It is the gopper/cm
// package's PlannerPort.
package planner

import (
	"math"

	"gopper/axis"
	"gopper/core"
	"gopper/model"
)

// DefaultCapacity mirrors spec.md §4.3.1's "typically 28-48 blocks".
const DefaultCapacity = 36

// Planner is a fixed-capacity ring buffer of model.Block tracked by three
// modular cursor indices rather than pointers (spec.md §9's explicit
// re-architecture note: "the ring itself is an array with cursor indices,
// not a doubly-linked list").
type Planner struct {
	axes axis.Set

	junctionAggression float64

	ring []model.Block // len == capacity

	write int // next block the CM will populate
	plan  int // earliest block still subject to replanning
	run   int // block the runtime is currently consuming

	count int // number of occupied slots between run and write

	lastTarget axis.Vector
	haveBlock  bool // true once at least one block has ever been enqueued
}

// New allocates a planner ring of the given capacity (0 = DefaultCapacity).
func New(axes axis.Set, junctionAggression float64, capacity int) *Planner {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ring := make([]model.Block, capacity)
	for i := range ring {
		ring[i] = model.NewBlock()
	}
	return &Planner{
		axes:                axes,
		junctionAggression:  junctionAggression,
		ring:                ring,
	}
}

func (p *Planner) next(i int) int { return (i + 1) % len(p.ring) }
func (p *Planner) prev(i int) int { return (i - 1 + len(p.ring)) % len(p.ring) }

// IsIdle reports whether the ring holds no queued, planned or running
// blocks.
func (p *Planner) IsIdle() bool { return p.count == 0 }

// LastTarget returns the absolute canonical position of the most
// recently enqueued block, or the zero vector before the first move.
func (p *Planner) LastTarget() axis.Vector { return p.lastTarget }

// SetPosition resets the planner's notion of current position without
// commanding motion (homing zero, and cm's reset).
func (p *Planner) SetPosition(pos axis.Vector) {
	p.lastTarget = pos
	p.haveBlock = true
}

// Flush drops every queued-but-not-running block (spec.md §6.2 '%'). A block
// already in MoveStateRunning survives; only the harsher reset (^X) tears
// that one down too.
func (p *Planner) Flush() {
	keep := p.count > 0 && p.ring[p.run].MoveState == model.MoveStateRunning
	for i, n := p.run, p.count; n > 0; i, n = p.next(i), n-1 {
		if keep && i == p.run {
			continue
		}
		p.ring[i].Reset()
	}
	p.write, p.count = p.run, 0
	if keep {
		p.write, p.count = p.next(p.run), 1
	}
	p.plan = p.write
}

// Reset tears down the entire ring, including any block in flight (spec.md
// §6.2 reset/^X: "the planner ring is flushed" with no carve-out for a
// running block, unlike the gentler queue-flush %). Cursors all collapse to
// slot 0 and lastTarget/haveBlock are left untouched — repositioning after a
// reset is the caller's job (cm.reset passes its reset position to
// SetPosition).
func (p *Planner) Reset() {
	for i := range p.ring {
		p.ring[i].Reset()
	}
	p.write, p.plan, p.run, p.count = 0, 0, 0, 0
}

// full reports whether the ring has no free slot for a new write.
func (p *Planner) full() bool {
	return p.count >= len(p.ring)
}

// Enqueue admits one straight-line move (spec.md §4.3.2): computes
// length, unit vector, per-axis minimum time and cruise ceiling, then
// runs the backward/forward passes and head/body/tail assignment before
// returning. Zero-length or NaN-jerk blocks are reduced to MoveNull
// rather than reported as an error (spec.md §4.3.8).
func (p *Planner) Enqueue(state model.GCodeState, target axis.Vector) model.Stat {
	if p.full() {
		return model.StatEagain
	}

	start := p.lastTarget

	blk := &p.ring[p.write]
	blk.Reset()
	blk.State = state
	blk.Start = start
	blk.Target = target
	blk.MoveState = model.MoveStateQueued
	blk.ReplanAllowed = true

	delta := target.Sub(start)
	blk.Length = delta.Length()

	if blk.Length < 1e-9 {
		blk.MoveType = model.MoveNull
	} else {
		blk.MoveType = model.MoveLine
		blk.UnitVector = delta.Unit()
	}

	p.prepareBlock(blk, state)

	p.lastTarget = target
	p.haveBlock = true
	p.write = p.next(p.write)
	p.count++

	p.replan()

	return model.StatOK
}

// EnqueueDwell queues a G4 dwell as a block with no motion (spec.md §4.1
// step 4, §4.3.8 "move_type command/dwell").
func (p *Planner) EnqueueDwell(seconds float64) model.Stat {
	if p.full() {
		return model.StatEagain
	}
	blk := &p.ring[p.write]
	blk.Reset()
	blk.MoveType = model.MoveDwell
	blk.MoveState = model.MoveStateQueued
	blk.Start = p.lastTarget
	blk.Target = p.lastTarget
	blk.MoveTime = seconds
	blk.State.Parameter = seconds

	p.write = p.next(p.write)
	p.count++
	return model.StatOK
}

// prepareBlock computes the forward-pass-invariant quantities of spec.md
// §4.3.2: per-axis minimum time, move_time, cruise ceiling, and the
// cached jerk terms used by the ramp-length formula of §4.3.6.
func (p *Planner) prepareBlock(blk *model.Block, state model.GCodeState) {
	if blk.MoveType == model.MoveNull {
		return
	}

	delta := blk.Target.Sub(blk.Start)
	minTime := 0.0
	jerk := math.Inf(1)
	for i := range delta {
		cfg := &p.axes[i]
		if cfg.Mode == axis.ModeDisabled {
			continue
		}
		d := math.Abs(delta[i])
		if d == 0 || cfg.FeedrateMax <= 0 {
			continue
		}
		if math.IsNaN(cfg.JerkMax) {
			blk.MoveType = model.MoveNull
			return
		}
		t := d / cfg.FeedrateMax
		if t > minTime {
			minTime = t
		}
		if cfg.JerkMax > 0 && cfg.JerkMax < jerk {
			jerk = cfg.JerkMax
		}
	}
	if math.IsInf(jerk, 1) {
		jerk = 1
	}

	feedRate := state.FeedRate
	if feedRate <= 0 {
		feedRate = 1
	}
	moveTime := blk.Length / feedRate
	if minTime > moveTime {
		moveTime = minTime
	}
	if moveTime <= 0 {
		blk.MoveType = model.MoveNull
		return
	}

	blk.State.MinimumTime = minTime
	blk.State.MoveTime = moveTime

	blk.CruiseVmax = blk.Length / moveTime
	blk.EntryVmax = blk.CruiseVmax
	blk.ExitVmax = blk.CruiseVmax

	blk.Jerk = jerk
	blk.RecipJerk = 1.0 / jerk
	blk.CbrtJerk = math.Cbrt(jerk)
}

// rampLength is ℓ(v1,v2) = |v2-v1| * sqrt(|v2-v1|/jerk), the jerk-
// controlled S-curve ramp length of spec.md §4.3.4/§4.3.6.
func rampLength(v1, v2, jerk float64) float64 {
	dv := math.Abs(v2 - v1)
	if dv == 0 || jerk <= 0 {
		return 0
	}
	return dv * math.Sqrt(dv/jerk)
}

// velocityForRamp solves ℓ = dv*sqrt(dv/jerk) for dv given a ramp length,
// the inverse of rampLength: dv = cbrt(ℓ² * jerk).
func velocityForRamp(length, jerk float64) float64 {
	if length <= 0 || jerk <= 0 {
		return 0
	}
	return math.Cbrt(length * length * jerk)
}

// junctionVelocity implements spec.md §4.3.3: the corner-speed formula
// clamped by both blocks' cruise ceilings and by junction_aggression.
func (p *Planner) junctionVelocity(prev, next *model.Block) float64 {
	if prev == nil || prev.MoveType == model.MoveNull || next.MoveType == model.MoveNull {
		return 0
	}
	cosTheta := prev.UnitVector.Dot(next.UnitVector)
	if cosTheta > 1 {
		cosTheta = 1
	}
	if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)
	sinHalf := math.Sin(theta / 2)

	maxDev := math.Inf(1)
	for i := range p.axes {
		if p.axes[i].Mode == axis.ModeDisabled {
			continue
		}
		if p.axes[i].JunctionDev < maxDev {
			maxDev = p.axes[i].JunctionDev
		}
	}
	if math.IsInf(maxDev, 1) {
		maxDev = 0.05
	}

	if sinHalf > 0.9999 {
		// Near-reversal: junction must be zero (spec.md §4.3.3).
		return 0
	}

	jerk := math.Min(prev.Jerk, next.Jerk)
	junctionAccel := math.Cbrt(jerk) // proxy for junction_acceleration derived from jerk

	vJunction := math.Sqrt(junctionAccel * maxDev * sinHalf / (1 - sinHalf))

	cruiseClamp := math.Min(prev.CruiseVmax, next.CruiseVmax)
	if vJunction > cruiseClamp {
		vJunction = cruiseClamp
	}
	aggroClamp := p.junctionAggression * math.Min(prev.EntryVmax, next.EntryVmax)
	if vJunction > aggroClamp {
		vJunction = aggroClamp
	}
	return vJunction
}

// replan re-runs the backward and forward look-ahead passes over every
// block between plan (inclusive) and write (exclusive), plus head/body/
// tail assignment (spec.md §4.3.4-§4.3.6). It runs after every Enqueue
// and re-walks every block in that window; a block's Hint is not consulted.
func (p *Planner) replan() {
	indices := p.planRange()
	if len(indices) == 0 {
		return
	}

	// Backward pass: walk from the newest block to plan.
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		blk := &p.ring[idx]
		if blk.MoveType == model.MoveNull {
			blk.ExitVelocity, blk.EntryVelocity = 0, 0
			continue
		}

		var nextBlk *model.Block
		if i+1 < len(indices) {
			nextBlk = &p.ring[indices[i+1]]
		}

		exitV := 0.0
		if nextBlk != nil && nextBlk.MoveType != model.MoveNull {
			exitV = p.junctionVelocity(blk, nextBlk)
			exitV = p.applyPathControl(blk, exitV)
		}
		blk.ExitVelocity = math.Min(exitV, blk.ExitVmax)

		reachable := math.Sqrt(blk.ExitVelocity*blk.ExitVelocity + 2*accelProxy(blk.Jerk, blk.Length)*blk.Length)
		entryMax := math.Min(blk.EntryVmax, reachable)

		// The predecessor of indices[0] is never itself in indices: PopRunnable
		// advances p.plan past a block the moment it starts running, so the
		// physical ring slot at p.prev(idx) already fell out of the replan
		// window. Look it up directly instead of unconditionally treating
		// indices[0] as the start of motion: it's almost always mid-stream.
		var prevBlk *model.Block
		frozen := false
		if i-1 >= 0 {
			prevBlk = &p.ring[indices[i-1]]
		} else if p.haveBlock {
			if cand := &p.ring[p.prev(idx)]; cand.MoveType != model.MoveNull {
				prevBlk, frozen = cand, true
			}
		}

		switch {
		case prevBlk == nil:
			entryMax = 0 // the very first block the planner has ever seen starts from rest
		case frozen:
			// prevBlk already started running (or finished) before this replan
			// began: its exit velocity is committed, not ours to recompute
			// (spec.md §8 invariant exit_of_block[i] = entry_of_block[i+1]).
			if prevBlk.ExitVelocity < entryMax {
				entryMax = prevBlk.ExitVelocity
			}
		default:
			jv := p.junctionVelocity(prevBlk, blk)
			jv = p.applyPathControl(prevBlk, jv)
			if jv < entryMax {
				entryMax = jv
			}
		}

		blk.EntryVelocity = entryMax
	}

	// Forward pass: walk from plan to the newest block.
	for i := 0; i < len(indices); i++ {
		idx := indices[i]
		blk := &p.ring[idx]
		if blk.MoveType == model.MoveNull {
			continue
		}

		reachable := math.Sqrt(blk.EntryVelocity*blk.EntryVelocity + 2*accelProxy(blk.Jerk, blk.Length)*blk.Length)
		exit := math.Min(blk.ExitVelocity, reachable)
		if exit < blk.ExitVelocity && i+1 < len(indices) {
			next := &p.ring[indices[i+1]]
			if exit < next.EntryVelocity {
				next.EntryVelocity = exit
			}
		}
		blk.ExitVelocity = exit

		p.assignProfile(blk)
	}
}

// accelProxy derives an effective constant-acceleration term from jerk
// and block length for the sqrt(v²+2·a·length) terms of §4.3.4/§4.3.5:
// a_max = cbrt(jerk * length) (spec.md §4.3.4).
func accelProxy(jerk, length float64) float64 {
	if jerk <= 0 || length <= 0 {
		return 0
	}
	return math.Cbrt(jerk * length)
}

// applyPathControl implements spec.md §4.3.7's per-junction downgrades.
func (p *Planner) applyPathControl(blk *model.Block, junctionV float64) float64 {
	switch blk.State.PathControl {
	case model.PathExactStop:
		return 0
	case model.PathExactPath:
		if junctionV > 0.707*blk.CruiseVmax {
			return 0
		}
		return junctionV
	default:
		return junctionV
	}
}

// assignProfile solves for head/body/tail lengths given (entry, cruise,
// exit) per spec.md §4.3.6, reducing cruise iteratively when the ramps
// alone would overrun the block's length.
func (p *Planner) assignProfile(blk *model.Block) {
	if blk.MoveType == model.MoveNull {
		return
	}
	cruise := blk.CruiseVmax
	entry, exit := blk.EntryVelocity, blk.ExitVelocity
	if cruise < entry {
		cruise = entry
	}
	if cruise < exit {
		cruise = exit
	}

	head := rampLength(entry, cruise, blk.Jerk)
	tail := rampLength(cruise, exit, blk.Jerk)

	if head+tail > blk.Length {
		// Bisect cruise down until the ramps alone fit the block, per
		// spec.md §4.3.6 ("bisection or a direct closed form").
		lo, hi := math.Max(entry, exit), cruise
		for iter := 0; iter < 32 && hi-lo > 1e-6; iter++ {
			mid := (lo + hi) / 2
			h := rampLength(entry, mid, blk.Jerk)
			t := rampLength(mid, exit, blk.Jerk)
			if h+t > blk.Length {
				hi = mid
			} else {
				lo = mid
			}
		}
		cruise = lo
		head = rampLength(entry, cruise, blk.Jerk)
		tail = rampLength(cruise, exit, blk.Jerk)
		if head+tail > blk.Length {
			// Even the reduced cruise doesn't fit: drop entry velocity and
			// let the next backward pass propagate the reduction upstream
			// (spec.md §4.3.6's "dropping entry velocity" branch).
			scale := blk.Length / (head + tail)
			head *= scale
			tail *= scale
			blk.EntryVelocity *= scale
			blk.Hint = model.HintNone
		}
	}

	blk.CruiseVelocity = cruise
	blk.HeadLength = head
	blk.TailLength = tail
	blk.BodyLength = blk.Length - head - tail
	if blk.BodyLength < 0 {
		blk.BodyLength = 0
	}
	blk.Hint = model.HintSameAsFit
}

// planRange returns the ring indices from plan (inclusive) to write
// (exclusive) in order.
func (p *Planner) planRange() []int {
	var out []int
	for i := p.plan; i != p.write; i = p.next(i) {
		out = append(out, i)
	}
	return out
}

// CheckIntegrity walks every occupied ring slot and reports its index for
// any block whose magic-word guards no longer match (spec.md §3.5): a
// corrupted slot nearly always means an out-of-bounds write elsewhere in
// the ring, so every mismatch is worth surfacing, not just the first.
func (p *Planner) CheckIntegrity() []int {
	var bad []int
	for i, n := p.run, p.count; n > 0; i, n = p.next(i), n-1 {
		if !p.ring[i].MagicOK() {
			bad = append(bad, i)
		}
	}
	return bad
}

// PopRunnable returns the block at the run cursor if it is ready to
// execute (planned, not already running), for the runtime package to
// consume. Returns nil if the ring is empty or the head block is still
// being actively replanned.
func (p *Planner) PopRunnable() *model.Block {
	if p.count == 0 {
		return nil
	}
	blk := &p.ring[p.run]
	if blk.MoveState == model.MoveStateDone || blk.MoveState == model.MoveStateRunning {
		return nil
	}
	if blk.MoveState == model.MoveStateQueued {
		blk.MoveState = model.MoveStatePlanned
	}
	blk.MoveState = model.MoveStateRunning
	blk.ReplanAllowed = false
	if p.run == p.plan {
		p.plan = p.next(p.plan)
	}
	return blk
}

// Retire marks the running block consumed and advances run, freeing its
// ring slot (spec.md §3.6 "Runtime marks empty after execution").
func (p *Planner) Retire() {
	if p.count == 0 {
		return
	}
	p.ring[p.run].MoveState = model.MoveStateDone
	p.ring[p.run].Reset()
	p.run = p.next(p.run)
	p.count--
	core.DebugPrintln("[planner] block retired")
}
