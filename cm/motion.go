package cm

import (
	"gopper/axis"
	"gopper/model"

	"github.com/pkg/errors"
)

// enqueueLine submits one straight move to the planner at the given
// absolute canonical target, under the currently active modal state.
// Null moves below MinLineLength are silently dropped (spec.md §8
// boundary behaviour), not reported as errors.
func (c *CM) enqueueLine(target axis.Vector) error {
	if err := c.checkSoftLimits(target); err != nil {
		return err
	}
	delta := target.Sub(c.gmx.Position)
	if delta.Length() < c.Config.MinLineLength {
		return nil
	}
	if st := c.planner.Enqueue(c.gm, target); st == model.StatEagain {
		return model.NewError(model.ErrRuntimeAssertion, errors.New("planner ring full"))
	}
	c.gmx.Position = target
	c.motionState = model.MotionRun2
	return nil
}

// dispatchMotion resolves the target and routes to straight_feed,
// arc_feed or probe handling according to the active motion mode
// (spec.md §4.1 step 11).
func (c *CM) dispatchMotion(in *model.GCodeInput) (model.Stat, error) {
	switch c.gm.MotionMode {
	case model.MotionCWArc, model.MotionCCWArc:
		return c.startArc(in)
	case model.MotionProbe:
		return c.startProbe(in)
	default:
		target := c.resolveTarget(in)
		if err := c.enqueueLine(target); err != nil {
			return model.StatErr, err
		}
		return model.StatOK, nil
	}
}
