package cm

import (
	"gopper/axis"
	"gopper/model"

	"github.com/pkg/errors"
)

// resolveTarget computes, for each axis flagged in the input, the absolute
// canonical target (spec.md §4.1 "Target resolution"):
//
//	target_canonical = to_mm(input) + work_offset + (G92 offset if enabled) + (machine origin if applicable)
//
// For incremental mode the raw value is added to the current canonical
// position instead of being resolved against the offset chain. G53
// (absolute override) bypasses the work offset and G92 offset entirely,
// targeting machine coordinates directly.
func (c *CM) resolveTarget(in *model.GCodeInput) axis.Vector {
	target := c.gmx.Position

	for i := range target {
		if !in.Flags.Target[i] {
			continue
		}
		raw := axis.ToMM(in.Target[i], unitsFor(c.gm.UnitsMode))
		raw = c.Config.Axes[i].ToAxisTarget(raw)

		if c.gm.DistanceMode == model.DistanceIncremental && !c.gm.AbsoluteOverride {
			target[i] = c.gmx.Position[i] + raw
			continue
		}

		if c.gm.AbsoluteOverride {
			target[i] = raw
			continue
		}

		offset := c.gm.WorkOffset[i]
		if c.gmx.OriginOffsetEnable {
			offset += c.gmx.OriginOffset[i]
		}
		target[i] = raw + offset
	}

	return target
}

func unitsFor(u model.UnitsMode) axis.Units {
	if u == model.UnitsInches {
		return axis.Inches
	}
	return axis.Millimeters
}

// checkSoftLimits validates target against each axis's travel envelope
// (spec.md §4.1 "Soft limits"), for axes whose limits are enabled.
func (c *CM) checkSoftLimits(target axis.Vector) error {
	for i := range target {
		cfg := &c.Config.Axes[i]
		if !cfg.SoftLimitsEnabled() {
			continue
		}
		if !cfg.WithinLimits(target[i]) {
			return model.NewError(model.ErrSemantic, errors.Errorf("axis %s: target %.4f out of soft limits [%.4f, %.4f]",
				axis.Index(i), target[i], cfg.TravelMin, cfg.TravelMax))
		}
	}
	return nil
}
