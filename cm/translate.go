package cm

import (
	"gopper/axis"
	"gopper/model"
	"gopper/standalone/gcode"

	"github.com/pkg/errors"
)

var axisLetters = [axis.Count]byte{'X', 'Y', 'Z', 'A', 'B', 'C'}

// translate maps a tokenised block's raw letter/number words onto a
// model.GCodeInput: the semantic step of deciding what each G/M number
// means (spec.md §1 "only the semantic interpretation of a parsed block is
// in scope"). Application in the strict order of spec.md §4.1 happens
// separately, in apply().
func (c *CM) translate(blk *gcode.Block) (*model.GCodeInput, error) {
	in := &model.GCodeInput{
		HasLineNumber: blk.HasLineNumber,
		LineNumber:    blk.LineNumber,
	}

	for i, letter := range axisLetters {
		if v, ok := blk.Get(letter); ok {
			in.Target[i] = v
			in.Flags.Target[i] = true
		}
	}
	if v, ok := blk.Get('I'); ok {
		in.IJK[0] = v
		in.Flags.IJK[0] = true
	}
	if v, ok := blk.Get('J'); ok {
		in.IJK[1] = v
		in.Flags.IJK[1] = true
	}
	if v, ok := blk.Get('K'); ok {
		in.IJK[2] = v
		in.Flags.IJK[2] = true
	}
	if v, ok := blk.Get('R'); ok {
		in.Radius = v
		in.Flags.Radius = true
	}
	if v, ok := blk.Get('F'); ok {
		in.FeedRate = v
		in.Flags.FeedRate = true
	}
	if v, ok := blk.Get('S'); ok {
		in.SpindleSpeed = v
		in.Flags.SpindleSpeed = true
	}
	if v, ok := blk.Get('P'); ok {
		in.Parameter = v
		in.Flags.Parameter = true
	}
	if v, ok := blk.Get('T'); ok {
		in.Tool = int(v)
		in.Flags.Tool = true
	}
	if v, ok := blk.Get('L'); ok {
		in.LWord = v
		in.Flags.LWord = true
	}
	in.Flags.BlockDelete = blk.BlockDelete

	for _, g := range blk.All('G') {
		if err := applyGWord(in, g); err != nil {
			return nil, model.NewError(model.ErrInput, err)
		}
	}
	for _, m := range blk.All('M') {
		if err := applyMWord(in, m); err != nil {
			return nil, model.NewError(model.ErrInput, err)
		}
	}

	return in, nil
}

func applyGWord(in *model.GCodeInput, g float64) error {
	switch g {
	case 0:
		in.MotionMode, in.Flags.MotionMode = model.MotionRapid, true
	case 1:
		in.MotionMode, in.Flags.MotionMode = model.MotionFeed, true
	case 2:
		in.MotionMode, in.Flags.MotionMode = model.MotionCWArc, true
	case 3:
		in.MotionMode, in.Flags.MotionMode = model.MotionCCWArc, true
	case 4:
		in.Flags.Dwell = true
	case 10:
		in.Flags.G10 = true
	case 17:
		in.SelectPlane, in.Flags.SelectPlane = model.PlaneXY, true
	case 18:
		in.SelectPlane, in.Flags.SelectPlane = model.PlaneXZ, true
	case 19:
		in.SelectPlane, in.Flags.SelectPlane = model.PlaneYZ, true
	case 20:
		in.UnitsMode, in.Flags.UnitsMode = model.UnitsInches, true
	case 21:
		in.UnitsMode, in.Flags.UnitsMode = model.UnitsMM, true
	case 28:
		in.Flags.G28 = true
	case 30:
		in.Flags.G30 = true
	case 38.2:
		in.MotionMode, in.Flags.MotionMode = model.MotionProbe, true
		in.Probe = true
	case 53:
		in.AbsoluteOverride, in.Flags.AbsoluteOverride = true, true
	case 54, 55, 56, 57, 58, 59:
		in.CoordSystem = model.CoordG54 + model.CoordSystem(g-54)
		in.Flags.CoordSystem = true
	case 61:
		in.PathControl, in.Flags.PathControl = model.PathExactStop, true
	case 61.1:
		in.PathControl, in.Flags.PathControl = model.PathExactPath, true
	case 64:
		in.PathControl, in.Flags.PathControl = model.PathContinuous, true
	case 90:
		in.DistanceMode, in.Flags.DistanceMode = model.DistanceAbsolute, true
	case 91:
		in.DistanceMode, in.Flags.DistanceMode = model.DistanceIncremental, true
	case 90.1:
		in.ArcDistanceMode, in.Flags.ArcDistanceMode = model.DistanceAbsolute, true
	case 91.1:
		in.ArcDistanceMode, in.Flags.ArcDistanceMode = model.DistanceIncremental, true
	case 92:
		in.G92Sub, in.Flags.G92 = model.G92Set, true
	case 92.1:
		in.G92Sub, in.Flags.G92 = model.G92Reset, true
	case 92.2:
		in.G92Sub, in.Flags.G92 = model.G92Suspend, true
	case 92.3:
		in.G92Sub, in.Flags.G92 = model.G92Resume, true
	case 93:
		in.FeedRateMode, in.Flags.FeedRateMode = model.InverseTime, true
	case 94:
		in.FeedRateMode, in.Flags.FeedRateMode = model.UnitsPerMinute, true
	default:
		return errors.Errorf("unsupported G word: G%v", g)
	}
	return nil
}

func applyMWord(in *model.GCodeInput, m float64) error {
	switch m {
	case 0:
		in.ProgramFlow, in.Flags.ProgramFlow = model.ProgramStop, true
	case 1:
		in.ProgramFlow, in.Flags.ProgramFlow = model.OptionalStop, true
	case 2:
		in.ProgramFlow, in.Flags.ProgramFlow = model.ProgramEnd, true
	case 3:
		in.SpindleMode, in.Flags.SpindleMode = model.SpindleCW, true
	case 4:
		in.SpindleMode, in.Flags.SpindleMode = model.SpindleCCW, true
	case 5:
		in.SpindleMode, in.Flags.SpindleMode = model.SpindleOff, true
	case 6:
		in.Flags.ToolChange = true
	case 7:
		in.MistCoolant, in.Flags.MistCoolant = true, true
	case 8:
		in.FloodCoolant, in.Flags.FloodCoolant = true, true
	case 9:
		in.MistCoolant, in.Flags.MistCoolant = false, true
		in.FloodCoolant, in.Flags.FloodCoolant = false, true
	case 30:
		in.ProgramFlow, in.Flags.ProgramFlow = model.ProgramEndRewind, true
	case 60:
		in.ProgramFlow, in.Flags.ProgramFlow = model.ProgramPause, true
	default:
		return errors.Errorf("unsupported M word: M%v", m)
	}
	return nil
}
