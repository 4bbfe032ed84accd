package cm

import (
	"gopper/axis"
	"gopper/model"
)

// probeCycle drives a G38.2 straight-probe move, watching the switch of
// every axis the probe moves each pass and stopping the instant one trips,
// recording the hit position (spec.md §4.1 motion mode "probe").
type probeCycle struct {
	target axis.Vector
	axes   []axis.Index
}

// startProbe arms a probe cycle toward the resolved target.
func (c *CM) startProbe(in *model.GCodeInput) (model.Stat, error) {
	target := c.resolveTarget(in)
	if err := c.checkSoftLimits(target); err != nil {
		return model.StatErr, err
	}
	var moving []axis.Index
	for i := range target {
		if in.Flags.Target[i] {
			moving = append(moving, axis.Index(i))
		}
	}
	c.probing = &probeCycle{target: target, axes: moving}
	c.cycleState = model.CycleProbe
	c.lastProbeHit = false
	return model.StatOK, nil
}

// stepProbing advances the probe one increment per pass, stopping on
// switch trip or arrival at the commanded target (a miss).
func (c *CM) stepProbing() model.Stat {
	p := c.probing
	for _, ax := range p.axes {
		sw := c.switches[ax]
		if sw != nil && sw.Triggered() {
			c.lastProbeHit = true
			c.lastProbePos = c.gmx.Position
			c.probing = nil
			c.cycleState = model.CycleOff
			return model.StatOK
		}
	}

	delta := p.target.Sub(c.gmx.Position)
	if delta.Length() < c.Config.MinLineLength {
		c.lastProbeHit = false
		c.lastProbePos = c.gmx.Position
		c.probing = nil
		c.cycleState = model.CycleOff
		return model.StatOK
	}

	step := delta.Unit().Scale(c.gm.FeedRate / 6000.0)
	if step.Length() > delta.Length() {
		step = delta
	}
	next := c.gmx.Position.Add(step)
	_ = c.enqueueLine(next)
	c.gmx.Position = next
	return model.StatEagain
}

// ProbeResult reports whether the last probe cycle tripped the switch
// and, if so, where.
func (c *CM) ProbeResult() (hit bool, pos axis.Vector) {
	return c.lastProbeHit, c.lastProbePos
}
