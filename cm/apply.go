package cm

import (
	"gopper/axis"
	"gopper/model"
	"gopper/standalone/gcode"

	"github.com/pkg/errors"
)

// Execute translates and applies one tokenised block in the strict order
// of spec.md §4.1 — "a single parsed block is applied in this strict
// order; violating it is the source of real bugs". Input and semantic
// errors (spec.md §7) are reported and the block is discarded; the
// machine continues.
func (c *CM) Execute(blk *gcode.Block) (model.Stat, error) {
	in, err := c.translate(blk)
	if err != nil {
		return model.StatErr, err
	}

	if in.HasLineNumber {
		c.gm.LineNumber = in.LineNumber
	}

	// Absolute override (G53) is valid for exactly this block; clear any
	// carry-over before applying step 7.
	c.gm.AbsoluteOverride = false

	// 1. feed-rate mode, then F-word.
	if in.Flags.FeedRateMode {
		c.gm.FeedRateMode = in.FeedRateMode
	}
	var rawFeed float64
	var haveFeed bool
	if in.Flags.FeedRate {
		rawFeed, haveFeed = in.FeedRate, true
		if c.gm.FeedRateMode == model.InverseTime && rawFeed == 0 {
			return model.StatErr, model.NewError(model.ErrInput,
				errors.New("inverse-time feed (G93) requires a nonzero F word"))
		}
	}

	// 2. spindle speed, tool select, tool change.
	if in.Flags.SpindleSpeed {
		c.gm.SpindleSpeed = in.SpindleSpeed
	}
	if in.Flags.Tool {
		c.gm.ToolSelect = in.Tool
	}
	if in.Flags.ToolChange {
		c.gm.Tool = c.gm.ToolSelect
	}

	// 3. spindle on/off, coolant, overrides.
	if in.Flags.SpindleMode {
		c.gm.SpindleMode = in.SpindleMode
	}
	if in.Flags.MistCoolant {
		c.gm.MistCoolant = in.MistCoolant
	}
	if in.Flags.FloodCoolant {
		c.gm.FloodCoolant = in.FloodCoolant
	}

	// 4. G4 dwell (queued, participates in ordering).
	if in.Flags.Dwell {
		seconds := in.Parameter
		if st := c.planner.EnqueueDwell(seconds); st == model.StatEagain {
			return model.StatEagain, nil
		}
	}

	// 5. plane select.
	if in.Flags.SelectPlane {
		c.gm.SelectPlane = in.SelectPlane
	}

	// 6. units.
	if in.Flags.UnitsMode {
		c.gm.UnitsMode = in.UnitsMode
	}
	if haveFeed {
		c.gm.FeedRate = axis.ToMM(rawFeed, unitsFor(c.gm.UnitsMode))
	}

	// 7. coordinate system, absolute override.
	if in.Flags.CoordSystem {
		c.gm.CoordSystem = in.CoordSystem
	}
	if in.Flags.AbsoluteOverride {
		c.gm.AbsoluteOverride = in.AbsoluteOverride
	}
	c.gm.WorkOffset = c.offsets[c.gm.CoordSystem]

	// 8. path control.
	if in.Flags.PathControl {
		c.gm.PathControl = in.PathControl
	}

	// 9. distance mode, arc distance mode.
	if in.Flags.DistanceMode {
		c.gm.DistanceMode = in.DistanceMode
	}
	if in.Flags.ArcDistanceMode {
		c.gm.ArcDistanceMode = in.ArcDistanceMode
	}

	// 10. G28/G30, G10, G92 family.
	if in.Flags.G10 {
		c.applyG10(in)
	}
	if in.Flags.G28 {
		if err := c.applyGoto(in, c.gmx.G28Position); err != nil {
			return model.StatErr, err
		}
	}
	if in.Flags.G30 {
		if err := c.applyGoto(in, c.gmx.G30Position); err != nil {
			return model.StatErr, err
		}
	}
	if in.Flags.G92 {
		c.applyG92(in)
	}

	// 11. motion, subject to absolute override and G53.
	if in.Flags.MotionMode {
		c.gm.MotionMode = in.MotionMode
	}
	hasTarget := false
	for _, f := range in.Flags.Target {
		hasTarget = hasTarget || f
	}
	hasArcWord := in.Flags.IJK[0] || in.Flags.IJK[1] || in.Flags.IJK[2] || in.Flags.Radius
	// Axis words already consumed by step 10 (G10, G28/G30, G92) are not
	// also a motion target.
	axisWordsConsumed := in.Flags.G10 || in.Flags.G28 || in.Flags.G30 || in.Flags.G92
	if (hasTarget || hasArcWord) && !axisWordsConsumed {
		if st, err := c.dispatchMotion(in); err != nil {
			return st, err
		}
	}

	// 12. program flow.
	if in.Flags.ProgramFlow {
		c.applyProgramFlow(in.ProgramFlow)
	}

	return model.StatOK, nil
}

func (c *CM) applyProgramFlow(flow model.ProgramFlowCode) {
	switch flow {
	case model.ProgramStop, model.OptionalStop, model.ProgramPause:
		c.machineState = model.MachineProgramStop
	case model.ProgramEnd, model.ProgramEndRewind:
		c.machineState = model.MachineProgramEnd
	}
}

// applyG10 implements G10 L2 Pn: write the absolute offset for coordinate
// system n (P1..P6 -> G54..G59) from the flagged axis words.
func (c *CM) applyG10(in *model.GCodeInput) {
	if in.LWord != 2 {
		return
	}
	idx := model.CoordG54
	if in.Flags.Parameter && in.Parameter >= 1 && in.Parameter <= 6 {
		idx = model.CoordG54 + model.CoordSystem(in.Parameter-1)
	}
	for i := range c.offsets[idx] {
		if in.Flags.Target[i] {
			c.offsets[idx][i] = axis.ToMM(in.Target[i], unitsFor(c.gm.UnitsMode))
		}
	}
	if idx == c.gm.CoordSystem {
		c.gm.WorkOffset = c.offsets[idx]
	}
}

// applyGoto implements G28/G30: optionally pass through an intermediate
// point (the axis words on this block), then rapid to the stored position.
func (c *CM) applyGoto(in *model.GCodeInput, stored axis.Vector) error {
	hasTarget := false
	for _, f := range in.Flags.Target {
		hasTarget = hasTarget || f
	}
	if hasTarget {
		interim := c.resolveTarget(in)
		if err := c.enqueueLine(interim); err != nil {
			return err
		}
	}
	return c.enqueueLine(stored)
}

// applyG92 implements the G92 family (spec.md §4.1 step 10, §9 Open
// Question on G92.3 with nothing suspended).
func (c *CM) applyG92(in *model.GCodeInput) {
	switch in.G92Sub {
	case model.G92Set:
		for i := range c.gmx.OriginOffset {
			if in.Flags.Target[i] {
				raw := axis.ToMM(in.Target[i], unitsFor(c.gm.UnitsMode))
				c.gmx.OriginOffset[i] = (c.gmx.Position[i] - c.gm.WorkOffset[i]) - raw
			}
		}
		c.gmx.OriginOffsetEnable = true
		c.gmx.OriginOffsetSuspended = false
	case model.G92Reset:
		c.gmx.OriginOffset = axis.Vector{}
		c.gmx.OriginOffsetEnable = false
		c.gmx.OriginOffsetSuspended = false
	case model.G92Suspend:
		c.gmx.OriginOffsetEnable = false
		c.gmx.OriginOffsetSuspended = true
	case model.G92Resume:
		// Open Question (spec.md §9): resuming with nothing suspended is a
		// no-op, matching the source's behaviour.
		if c.gmx.OriginOffsetSuspended {
			c.gmx.OriginOffsetEnable = true
			c.gmx.OriginOffsetSuspended = false
		}
	}
}
