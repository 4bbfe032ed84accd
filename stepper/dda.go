// Package stepper implements the Stepper DDA (spec.md §4.5): a classical
// Bresenham digital differential analyser advancing all motors off one
// free-running timer, fed by a double-buffered prep/exec segment handoff
// from the runtime package.
package stepper

import (
	"gopper/axis"
	"gopper/core"
	"gopper/model"
)

// TicksPerMicrosecond is the scheduler clock rate assumption carried over
// from core's Klipper-derived timer (core/scheduler.go): callers configure
// it to match the target's actual tick rate.
var TicksPerMicrosecond uint32 = 12 // 12 MHz, matching core.Stepper's doc comment

// Motor binds one canonical axis to its hardware backend.
type Motor struct {
	Backend    core.StepperBackend
	Invert     bool
	accumulator int64
}

// DDA is the fixed-frequency digital differential analyser driving up to
// axis.Count motors off one shared timer tick (spec.md §4.5).
type DDA struct {
	motors [axis.Count]*Motor

	prep model.Segment
	havePrep bool

	exec     model.Segment
	haveExec bool
	stepsRemaining [axis.Count]int32
	direction      [axis.Count]bool

	timer core.Timer
	busy  bool
}

// New creates an idle DDA with no motors attached.
func New() *DDA {
	d := &DDA{}
	d.timer.Handler = d.tick
	return d
}

// AttachMotor registers the hardware backend for one axis.
func (d *DDA) AttachMotor(i axis.Index, backend core.StepperBackend, invert bool) {
	d.motors[i] = &Motor{Backend: backend, Invert: invert}
}

// LoadSegment implements runtime.SegmentSink: the runtime writes into
// prep; the next load-ready check swaps prep into exec (spec.md §5
// "Runtime writes into prep; the stepper-load ISR swaps prep<->exec in
// one indivisible operation").
func (d *DDA) LoadSegment(seg model.Segment) model.Stat {
	if d.havePrep {
		return model.StatEagain
	}
	d.prep = seg
	d.havePrep = true
	if !d.busy {
		d.loadReady()
	}
	return model.StatOK
}

// loadReady is the main-loop "stepper load-ready check" task of spec.md
// §5 step 1: if the DDA is idle and a segment is waiting in prep, swap it
// into exec and arm the timer.
func (d *DDA) loadReady() model.Stat {
	if d.busy {
		return model.StatNoop
	}
	if !d.havePrep {
		return model.StatNoop
	}

	d.exec = d.prep
	d.haveExec = true
	d.havePrep = false

	maxSteps := int32(0)
	for i, s := range d.exec.Steps {
		d.stepsRemaining[i] = absInt32(s)
		d.direction[i] = s < 0
		if d.stepsRemaining[i] > maxSteps {
			maxSteps = d.stepsRemaining[i]
		}
	}
	for i := range d.motors {
		if d.motors[i] != nil {
			d.motors[i].accumulator = 0
			d.motors[i].Backend.SetDirection(d.direction[i] != d.motors[i].Invert)
		}
	}

	if maxSteps == 0 {
		// Dwell or a zero-motion segment: just time it out. A dwell carries
		// no DDA period, so the timer covers its whole segment time.
		period := d.exec.DDAPeriod
		if period == 0 {
			period = uint32(d.exec.SegmentTime * 1e6)
		}
		d.armTimer(period)
		d.busy = true
		return model.StatOK
	}

	d.armTimer(d.exec.DDAPeriod)
	d.busy = true
	return model.StatOK
}

func (d *DDA) armTimer(periodMicros uint32) {
	if periodMicros == 0 {
		periodMicros = 1
	}
	d.timer.WakeTime = core.GetTime() + periodMicros*TicksPerMicrosecond
	core.ScheduleTimer(&d.timer)
}

// tick is the DDA's timer handler: each firing adds |steps_motor| to
// every accumulator; overflow (>= max_steps) emits one pulse and
// subtracts max_steps (spec.md §4.5's Bresenham description).
func (d *DDA) tick(t *core.Timer) uint8 {
	maxSteps := int32(0)
	for _, s := range d.stepsRemaining {
		if s > maxSteps {
			maxSteps = s
		}
	}
	if maxSteps == 0 {
		return d.loadNext()
	}

	for i := range d.motors {
		m := d.motors[i]
		if m == nil || d.stepsRemaining[i] == 0 {
			continue
		}
		m.accumulator += int64(d.stepsRemaining[i])
		if m.accumulator >= int64(maxSteps) {
			m.Backend.Step()
			m.accumulator -= int64(maxSteps)
			d.stepsRemaining[i]--
		}
	}

	remaining := int32(0)
	for _, s := range d.stepsRemaining {
		remaining += s
	}
	if remaining == 0 {
		return d.loadNext()
	}

	d.armTimer(d.exec.DDAPeriod)
	return core.SF_RESCHEDULE
}

// loadNext finishes the current segment and, if a new one is ready in
// prep, swaps it in immediately (spec.md §4.5's "load next" SW interrupt).
func (d *DDA) loadNext() uint8 {
	d.haveExec = false
	d.busy = false
	if d.havePrep {
		d.loadReady()
		return core.SF_RESCHEDULE
	}
	// No segment ready: the DDA idles and clears motion-busy.
	return core.SF_DONE
}

// Busy reports whether the DDA is actively stepping (motion-busy flag).
func (d *DDA) Busy() bool { return d.busy }

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
