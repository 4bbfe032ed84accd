package cm

import (
	"gopper/axis"
	"gopper/model"

	"github.com/pkg/errors"
)

// homingStage names one leg of a per-axis homing cycle (spec.md §4.1
// "Homing and probing"): rapid-to-switch, backoff, re-approach, final
// zero-backoff.
type homingStage int

const (
	stageSearch homingStage = iota
	stageBackoff
	stageLatch
	stageZero
	stageDone
)

// homingCycle drives one axis at a time through its four-stage sequence,
// re-entering the same planner API as ordinary moves for each leg
// (spec.md §4.1, §9 "cycles are sub-state machines that inject motion via
// the same planner API and register a completion callback").
type homingCycle struct {
	axes  []axis.Index
	i     int
	stage homingStage
}

// StartHoming arms a homing cycle over the given axes (all enabled axes
// if none given), in order.
func (c *CM) StartHoming(axes ...axis.Index) model.Stat {
	if c.cycleState != model.CycleOff {
		return model.StatErr
	}
	if len(axes) == 0 {
		for i := range c.Config.Axes {
			if c.Config.Axes[i].Mode != axis.ModeDisabled {
				axes = append(axes, axis.Index(i))
			}
		}
	}
	c.homing = &homingCycle{axes: axes}
	c.cycleState = model.CycleHoming
	return model.StatOK
}

// stepHoming advances the current axis through its stage, one call per
// super-loop pass (spec.md §5 "run-to-completion, non-blocking").
func (c *CM) stepHoming() model.Stat {
	h := c.homing
	if h.i >= len(h.axes) {
		c.homing = nil
		c.cycleState = model.CycleOff
		return model.StatOK
	}
	ax := h.axes[h.i]
	cfg := &c.Config.Axes[ax]
	sw := c.switches[ax]

	switch h.stage {
	case stageSearch:
		if sw != nil && sw.Triggered() {
			h.stage = stageBackoff
			return model.StatOK
		}
		c.jogAxis(ax, cfg.HomingDir*cfg.SearchVelocity)
		return model.StatEagain

	case stageBackoff:
		target := c.gmx.Position
		target[ax] -= cfg.HomingDir * cfg.LatchBackoff
		c.settleAxisMove(target)
		h.stage = stageLatch
		return model.StatOK

	case stageLatch:
		if sw != nil && sw.Triggered() {
			h.stage = stageZero
			return model.StatOK
		}
		c.jogAxis(ax, cfg.HomingDir*cfg.LatchVelocity)
		return model.StatEagain

	case stageZero:
		target := c.gmx.Position
		target[ax] -= cfg.HomingDir * cfg.ZeroBackoff
		c.settleAxisMove(target)
		c.gmx.Position[ax] = 0
		c.planner.SetPosition(c.gmx.Position)
		h.i++
		h.stage = stageSearch
		return model.StatOK
	}

	return model.StatErr
}

// jogAxis enqueues a small incremental move toward the switch; the real
// runtime re-issues this every pass until Triggered() flips, approximating
// a continuous seek with the same discrete planner API used elsewhere.
func (c *CM) jogAxis(ax axis.Index, velocityMM float64) {
	target := c.gmx.Position
	step := velocityMM / 6000.0 // one super-loop pass's worth of travel, conservatively
	target[ax] += step
	_ = c.enqueueLine(target)
}

func (c *CM) settleAxisMove(target axis.Vector) {
	_ = c.enqueueLine(target)
	c.gmx.Position = target
}

var errHomingNotTriggered = errors.New("homing: switch never triggered")
