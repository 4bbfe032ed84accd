package cm

import (
	"gopper/arc"
	"gopper/model"
)

// arcState wraps the arc generator for one in-progress G2/G3 move. It is
// owned by the CM and driven to exhaustion via Tick/stepArc before any
// new input is accepted, rather than handed to the Planner directly
// (spec.md §9 "re-model as an iterator/generator object owned by the CM").
type arcState struct {
	gen *arc.Generator
}

// startArc resolves plane, centre and segmentation, then arms c.arcGen.
// The first segment is emitted immediately so the caller's Stat reflects
// whether the queue accepted it.
func (c *CM) startArc(in *model.GCodeInput) (model.Stat, error) {
	plane := arcPlane(c.gm.SelectPlane)
	target := c.resolveTarget(in)

	params := arc.Params{
		Plane:      plane,
		Clockwise:  c.gm.MotionMode == model.MotionCWArc,
		Start:      c.gmx.Position,
		End:        target,
		FeedRate:   c.gm.FeedRate,
		ChordalTol: c.Config.ChordalTolerance,
		MinSegLen:  c.Config.MinArcSegmentLen,
	}
	if in.Flags.Radius {
		params.HasRadius = true
		params.Radius = in.Radius
	} else {
		params.HasIJK = true
		params.IJK = in.IJK
	}

	gen, err := arc.NewGenerator(params)
	if err != nil {
		return model.StatErr, model.NewError(model.ErrSemantic, err)
	}

	c.arcGen = &arcState{gen: gen}
	return c.stepArc(), nil
}

// stepArc emits the next arc segment as an ordinary line move. When the
// generator is exhausted, c.arcGen is cleared and normal input resumes.
func (c *CM) stepArc() model.Stat {
	if c.arcGen == nil {
		return model.StatNoop
	}
	target := c.arcGen.gen.Next()
	if err := c.enqueueLine(target); err != nil {
		c.arcGen = nil
		return model.StatErr
	}
	if c.arcGen.gen.Done() {
		c.arcGen = nil
	}
	return model.StatOK
}

func arcPlane(p model.Plane) arc.Plane {
	switch p {
	case model.PlaneXZ:
		return arc.PlaneXZ
	case model.PlaneYZ:
		return arc.PlaneYZ
	default:
		return arc.PlaneXY
	}
}
