// Package runtime is the Segment Executor (spec.md §4.4): it pops planned
// blocks from the planner, walks each block's head/body/tail phases and
// synthesises fixed-duration segments with cumulative step quantisation,
// handing them to the Stepper's double-buffered prep/exec pair.
package runtime

import (
	"math"

	"gopper/axis"
	"gopper/model"
)

// NominalSegmentTime is the target segment duration (spec.md §4.4 "1-10 ms").
const NominalSegmentTime = 0.004 // seconds

// phase names one of a block's three velocity-profile regions.
type phase int

const (
	phaseHead phase = iota
	phaseBody
	phaseTail
	phaseDone
)

// BlockSource is the planner's half of the runtime/planner contract: pop
// the next ready-to-run block, and retire it once fully consumed.
type BlockSource interface {
	PopRunnable() *model.Block
	Retire()
}

// SegmentSink receives finished segments, double-buffered prep/exec by
// the stepper package (spec.md §5 "a double-buffered prep/exec pair").
type SegmentSink interface {
	LoadSegment(model.Segment) model.Stat
}

// Runtime walks the current block's phases, synthesising segments on
// demand; it holds no queue of its own (spec.md §3.4 "the Runtime is
// itself the queue's single reader").
type Runtime struct {
	axes axis.Set

	planner BlockSource
	stepper SegmentSink

	blk   *model.Block
	ph    phase
	k, n  int // current segment index / count within the phase
	tHalf float64
	vMid  float64
	aMid  float64

	phaseElapsedLen float64 // mm already advanced within the current phase
	phasePos        float64 // position along the block, mm, start-of-phase
	position        axis.Vector
	stepAccum       [axis.Count]float64 // cumulative fractional steps, for quantisation

	holdDecelerating bool
	holdReshaped     bool // whether the in-flight block's profile already reflects holdDecelerating
}

// New creates a runtime bound to a planner and a stepper sink.
func New(axes axis.Set, planner BlockSource, stepper SegmentSink) *Runtime {
	return &Runtime{axes: axes, planner: planner, stepper: stepper}
}

// RequestHold asks the runtime to replan the current block's tail down to
// a stop at the next segment boundary rather than the next block boundary
// (spec.md §5 "Feed-hold takes effect at the next segment boundary").
func (r *Runtime) RequestHold() { r.holdDecelerating = true }

// CancelHold clears a pending hold so normal phase traversal resumes.
func (r *Runtime) CancelHold() { r.holdDecelerating = false }

// applyHoldTransition reshapes the in-flight block's remaining geometry
// whenever holdDecelerating has changed since the last reshape: entering
// a hold collapses whatever is left of the block into a single ramp down
// to 0, and cancelling one mirrors a re-acceleration back toward the
// block's original cruise speed, both at the next segment boundary
// (spec.md §5).
func (r *Runtime) applyHoldTransition() {
	if r.blk == nil {
		return
	}
	switch {
	case r.holdDecelerating && !r.holdReshaped:
		r.holdReshaped = true
		r.reshapeRemaining(phaseTail, 0)
	case !r.holdDecelerating && r.holdReshaped:
		r.holdReshaped = false
		r.reshapeRemaining(phaseHead, r.blk.CruiseVmax)
	}
}

// currentVelocity evaluates the S-curve velocity function at the upcoming
// segment boundary: the phase-local time already elapsed within the
// current phase, i.e. the instantaneous velocity a hold takes effect from.
func (r *Runtime) currentVelocity() float64 {
	if r.ph >= phaseDone || r.n <= 0 {
		return 0
	}
	phaseTime := r.n2Time(r.ph)
	tau := float64(r.k) / float64(r.n) * phaseTime
	return r.velocityAt(r.ph, tau, phaseTime)
}

// reshapeRemaining collapses whatever is left of the in-flight block into
// a single jerk-limited ramp from the current instantaneous velocity
// toward target, spanning the whole remaining distance, and switches the
// phase cursor to ph so nextSegment synthesises from the new profile
// (spec.md §4.3.4/§4.3.6's ramp-length formula, duplicated as
// velocityForRamp below since the Runtime has no dependency on planner).
func (r *Runtime) reshapeRemaining(ph phase, target float64) {
	vCur := r.currentVelocity()
	remaining := r.blk.Length - r.traveledSoFar()
	if remaining <= 0 {
		return
	}

	dv := velocityForRamp(remaining, r.blk.Jerk)
	var v2 float64
	if target >= vCur {
		v2 = math.Min(target, vCur+dv)
	} else {
		v2 = math.Max(target, vCur-dv)
	}

	r.blk.HeadLength, r.blk.BodyLength, r.blk.TailLength = 0, 0, 0
	switch ph {
	case phaseHead:
		r.blk.EntryVelocity = vCur
		r.blk.CruiseVelocity = v2
		r.blk.HeadLength = remaining
	case phaseTail:
		r.blk.CruiseVelocity = vCur
		r.blk.ExitVelocity = v2
		r.blk.TailLength = remaining
	}

	r.ph = ph
	r.k = 0
	r.n = r.segmentCountFor(ph)
	r.phasePos = 0
}

// velocityForRamp solves ℓ = dv·sqrt(dv/jerk) for dv given a ramp length,
// the inverse of planner's rampLength: dv = cbrt(ℓ²·jerk).
func velocityForRamp(length, jerk float64) float64 {
	if length <= 0 || jerk <= 0 {
		return 0
	}
	return math.Cbrt(length * length * jerk)
}

// Tick advances the runtime by one segment's worth of work: this is the
// main-loop "runtime segment prep" task of spec.md §5, called once per
// super-loop pass. It is run-to-completion non-blocking.
func (r *Runtime) Tick() model.Stat {
	if r.blk == nil {
		blk := r.planner.PopRunnable()
		if blk == nil {
			return model.StatNoop
		}
		r.startBlock(blk)
	}

	if r.blk.MoveType == model.MoveNull {
		r.planner.Retire()
		r.blk = nil
		return model.StatOK
	}

	if r.blk.MoveType == model.MoveDwell {
		return r.stepDwell()
	}

	r.applyHoldTransition()

	seg, final, ok := r.nextSegment()
	if !ok {
		r.planner.Retire()
		r.blk = nil
		return model.StatOK
	}

	if st := r.stepper.LoadSegment(seg); st == model.StatEagain {
		return model.StatEagain
	}
	if final {
		r.planner.Retire()
		r.blk = nil
	}
	return model.StatOK
}

func (r *Runtime) startBlock(blk *model.Block) {
	r.blk = blk
	r.ph = phaseHead
	r.phasePos = 0
	r.position = blk.Start
	r.k = 0
	r.holdReshaped = false
	r.n = r.segmentCountFor(phaseHead)
	for i := range r.stepAccum {
		r.stepAccum[i] = toSteps(r.position[i])
	}
	if blk.HeadLength == 0 {
		r.advancePhase()
	}
}

func (r *Runtime) stepDwell() model.Stat {
	period := r.blk.State.Parameter
	if period <= 0 {
		period = r.blk.MoveTime
	}
	seg := model.Segment{SegmentTime: period, Final: true}
	if st := r.stepper.LoadSegment(seg); st == model.StatEagain {
		return model.StatEagain
	}
	r.planner.Retire()
	r.blk = nil
	return model.StatOK
}

// segmentCountFor returns max(1, round(phase_time/nominal)) for the given
// phase (spec.md §4.4 step 1), or 0 for a phase of zero length.
func (r *Runtime) segmentCountFor(p phase) int {
	length, v1, v2 := r.phaseGeometry(p)
	if length <= 0 {
		return 0
	}
	avg := (v1 + v2) / 2
	if avg <= 0 {
		avg = r.blk.CruiseVelocity
	}
	if avg <= 0 {
		return 1
	}
	phaseTime := (length / avg) * 60.0 // velocities are mm/min; convert to seconds
	n := int(math.Round(phaseTime / NominalSegmentTime))
	if n < 1 {
		n = 1
	}
	return n
}

func (r *Runtime) phaseGeometry(p phase) (length, v1, v2 float64) {
	switch p {
	case phaseHead:
		return r.blk.HeadLength, r.blk.EntryVelocity, r.blk.CruiseVelocity
	case phaseBody:
		return r.blk.BodyLength, r.blk.CruiseVelocity, r.blk.CruiseVelocity
	case phaseTail:
		return r.blk.TailLength, r.blk.CruiseVelocity, r.blk.ExitVelocity
	}
	return 0, 0, 0
}

// advancePhase moves to the next nonzero-length phase, or phaseDone.
func (r *Runtime) advancePhase() {
	for {
		r.ph++
		r.phasePos = 0
		r.k = 0
		if r.ph >= phaseDone {
			return
		}
		length, _, _ := r.phaseGeometry(r.ph)
		r.n = r.segmentCountFor(r.ph)
		if length > 0 && r.n > 0 {
			return
		}
	}
}

// velocityAt evaluates the S-curve velocity-vs-time function for phase p
// at phase-local elapsed time tau (spec.md §4.4 step 2).
func (r *Runtime) velocityAt(p phase, tau, phaseTime float64) float64 {
	_, v1, v2 := r.phaseGeometry(p)
	if p == phaseBody {
		return v1
	}

	half := phaseTime / 2
	if half <= 0 {
		return v2
	}
	// The constant jerk that carries v1 to v2 in exactly phaseTime, so the
	// ramp ends on the phase's end velocity.
	jerk := (v2 - v1) / (half * half)
	if p == phaseTail {
		jerk = -jerk
	}
	if p == phaseHead {
		if tau <= half {
			return v1 + 0.5*jerk*tau*tau
		}
		vMid := v1 + 0.5*jerk*half*half
		aMid := jerk * half
		dt := tau - half
		return vMid + aMid*dt - 0.5*jerk*dt*dt
	}
	// Tail mirrors head: decelerating from v1 (=cruise) to v2 (=exit).
	if tau <= half {
		return v1 - 0.5*jerk*tau*tau
	}
	vMid := v1 - 0.5*jerk*half*half
	aMid := -jerk * half
	dt := tau - half
	return vMid + aMid*dt + 0.5*jerk*dt*dt
}

// nextSegment synthesises the next segment of the current phase,
// advancing phases as needed, and reports whether this is the block's
// final segment (spec.md §4.4 steps 2-4).
func (r *Runtime) nextSegment() (model.Segment, bool, bool) {
	for r.ph < phaseDone && (r.n == 0 || r.k >= r.n) {
		r.advancePhase()
		if r.ph >= phaseDone {
			return model.Segment{}, false, false
		}
	}
	if r.ph >= phaseDone {
		return model.Segment{}, false, false
	}

	length, _, _ := r.phaseGeometry(r.ph)
	phaseTime := r.n2Time(r.ph)
	segTime := phaseTime / float64(r.n)
	tau := (float64(r.k) + 0.5) * segTime

	v := r.velocityAt(r.ph, tau, phaseTime)
	segLen := v * (segTime / 60.0) // v is mm/min; segTime is seconds

	isLastSegOfPhase := r.k == r.n-1
	isFinalOfBlock := isLastSegOfPhase && r.isLastPhaseWithLength()

	if isFinalOfBlock {
		// Finalisation (spec.md §4.4 step 4): drive the remaining
		// sub-quantum distance exactly to the planner target.
		remaining := r.blk.Length - r.traveledSoFar()
		if remaining > 0 {
			segLen = remaining
		}
	}

	newPos := r.position.Add(r.blk.UnitVector.Scale(segLen))
	var steps [axis.Count]int32
	maxSteps := int32(0)
	for i := range newPos {
		target := toSteps(newPos[i])
		delta := int32(math.Round(target - r.stepAccum[i]))
		steps[i] = delta
		r.stepAccum[i] += float64(delta)
		if abs32(delta) > maxSteps {
			maxSteps = abs32(delta)
		}
	}
	r.position = newPos

	var ddaPeriod uint32
	if maxSteps > 0 {
		ddaPeriod = uint32(segTime / float64(maxSteps) * 1e6) // microseconds per step tick
	}

	seg := model.Segment{
		Velocity:    v,
		Length:      segLen,
		SegmentTime: segTime,
		Steps:       steps,
		DDAPeriod:   ddaPeriod,
		Final:       isFinalOfBlock,
	}

	r.k++
	_ = length
	return seg, isFinalOfBlock, true
}

func (r *Runtime) n2Time(p phase) float64 {
	length, v1, v2 := r.phaseGeometry(p)
	avg := (v1 + v2) / 2
	if avg <= 0 {
		avg = r.blk.CruiseVelocity
	}
	if avg <= 0 || length <= 0 {
		return NominalSegmentTime * float64(r.n)
	}
	return (length / avg) * 60.0
}

func (r *Runtime) isLastPhaseWithLength() bool {
	for p := r.ph + 1; p < phaseDone; p++ {
		length, _, _ := r.phaseGeometry(p)
		if length > 0 {
			return false
		}
	}
	return true
}

func (r *Runtime) traveledSoFar() float64 {
	return r.position.Sub(r.blk.Start).Length()
}

func toSteps(mm float64) float64 {
	const stepsPerMM = 80.0 // matches standalone/config's default microstep scaling
	return mm * stepsPerMM
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
