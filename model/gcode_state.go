package model

import "gopper/axis"

// MotionMode is the modal group 1 motion mode (spec.md §3.2).
type MotionMode int

const (
	MotionRapid MotionMode = iota
	MotionFeed
	MotionCWArc
	MotionCCWArc
	MotionCancel
	MotionProbe
	MotionHoming
)

// FeedRateMode selects how FeedRate is interpreted.
type FeedRateMode int

const (
	UnitsPerMinute FeedRateMode = iota
	InverseTime
)

// Plane is the active arc/offset plane (G17/G18/G19).
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// UnitsMode is the modal distance unit (G20/G21).
type UnitsMode int

const (
	UnitsMM UnitsMode = iota
	UnitsInches
)

// PathControl is the cornering behaviour (G61/G61.1/G64).
type PathControl int

const (
	PathExactStop PathControl = iota
	PathExactPath
	PathContinuous
)

// DistanceMode is absolute vs incremental positioning (G90/G91).
type DistanceMode int

const (
	DistanceAbsolute DistanceMode = iota
	DistanceIncremental
)

// CoordSystem selects the active work-offset table (G54..G59, or machine).
type CoordSystem int

const (
	CoordMachine CoordSystem = iota
	CoordG54
	CoordG55
	CoordG56
	CoordG57
	CoordG58
	CoordG59
	CoordSystemCount
)

// SpindleMode is the spindle rotation direction.
type SpindleMode int

const (
	SpindleOff SpindleMode = iota
	SpindleCW
	SpindleCCW
)

// GCodeState is the canonical record (spec.md §3.2) carried from the model
// into planner blocks and finally into the runtime. Every layer that holds
// a GCodeState value owns a consistent snapshot of modal state as it
// existed when the corresponding block was admitted (spec.md §9).
type GCodeState struct {
	LineNumber int
	MotionMode MotionMode

	Target      axis.Vector // absolute canonical coordinates, mm/deg
	WorkOffset  axis.Vector

	FeedRate     float64 // mm/min or deg/min
	SpindleSpeed float64
	Parameter    float64 // the P word: dwell seconds or coord-select (G10's L value is GCodeInput.LWord)

	MoveTime    float64 // seconds, optimal for this move
	MinimumTime float64 // seconds, jerk-limited floor

	FeedRateMode     FeedRateMode
	SelectPlane      Plane
	UnitsMode        UnitsMode
	PathControl      PathControl
	DistanceMode     DistanceMode
	ArcDistanceMode  DistanceMode
	AbsoluteOverride bool // G53, valid for one block only

	CoordSystem CoordSystem
	Tool        int
	ToolSelect  int

	MistCoolant bool
	FloodCoolant bool
	SpindleMode SpindleMode
}

// DefaultGCodeState returns the canonical startup modal state.
func DefaultGCodeState() GCodeState {
	return GCodeState{
		MotionMode:   MotionRapid,
		FeedRateMode: UnitsPerMinute,
		SelectPlane:  PlaneXY,
		UnitsMode:    UnitsMM,
		PathControl:  PathContinuous,
		DistanceMode: DistanceAbsolute,
		CoordSystem:  CoordG54,
		SpindleMode:  SpindleOff,
	}
}

const (
	magicWord = 0x12488421 // arbitrary fixed constant, per spec.md §3.5
)

// GCodeStateExtended is the model-only extended state (spec.md §3.2):
// canonical position, G92 origin offsets, stored G28/G30 positions,
// override factors/enables, block-delete switch, bracketed by magic-word
// integrity guards that a periodic assertion walk compares (§3.5, §7).
type GCodeStateExtended struct {
	MagicStart uint32

	Position     axis.Vector
	OriginOffset axis.Vector // G92
	OriginOffsetEnable bool

	G28Position axis.Vector
	G30Position axis.Vector

	FeedRateOverride       float64
	FeedRateOverrideEnable bool
	TraverseOverride       float64
	TraverseOverrideEnable bool
	SpindleOverride        float64
	SpindleOverrideEnable  bool

	OriginOffsetSuspended bool // true between G92.2 and G92.3

	BlockDeleteSwitch bool

	MagicEnd uint32
}

// DefaultGCodeStateExtended returns the startup extended state with magic
// guards set and override factors at unity.
func DefaultGCodeStateExtended() GCodeStateExtended {
	return GCodeStateExtended{
		MagicStart:             magicWord,
		FeedRateOverride:       1.0,
		FeedRateOverrideEnable: true,
		TraverseOverride:       1.0,
		TraverseOverrideEnable: true,
		SpindleOverride:        1.0,
		SpindleOverrideEnable:  true,
		MagicEnd:               magicWord,
	}
}

// MagicOK reports whether both guard words still match the fixed constant.
// A mismatch is the "memory corruption" fatal condition of spec.md §3.5/§7.
func (g *GCodeStateExtended) MagicOK() bool {
	return g.MagicStart == magicWord && g.MagicEnd == magicWord
}

// GCodeFlags is the parallel bool mask of which words were present in a
// freshly parsed block (spec.md §3.2): the CM applies only flagged fields,
// in the strict order of spec.md §4.1.
type GCodeFlags struct {
	Target [axis.Count]bool

	FeedRate     bool
	SpindleSpeed bool
	Parameter    bool
	LWord        bool

	MotionMode      bool
	FeedRateMode    bool
	SelectPlane     bool
	UnitsMode       bool
	PathControl     bool
	DistanceMode    bool
	ArcDistanceMode bool
	AbsoluteOverride bool

	CoordSystem bool
	Tool        bool
	ToolChange  bool // M6

	MistCoolant  bool
	FloodCoolant bool
	SpindleMode  bool

	IJK    [3]bool
	Radius bool

	G28 bool
	G30 bool
	G10 bool
	G92 bool // 0: set, 1: suspend, 2: resume(wrong numbering avoided, see G92Sub)

	ProgramFlow bool
	Dwell       bool // G4
	Probe       bool // G38.2

	BlockDelete bool
}

// G92Sub distinguishes the G92 family (set / suspend / resume / reset).
type G92Sub int

const (
	G92Set G92Sub = iota
	G92Suspend   // G92.2
	G92Resume    // G92.3
	G92Reset     // G92.1
)

// ProgramFlowCode enumerates M0/M1/M2/M30/M60.
type ProgramFlowCode int

const (
	ProgramFlowNone ProgramFlowCode = iota
	ProgramStop         // M0
	OptionalStop        // M1
	ProgramEnd          // M2
	ProgramEndRewind    // M30
	ProgramPause        // M60
)

// GCodeInput is the freshly parsed block: raw target/IJK/R/parameter
// values plus the modal selections, paired with GCodeFlags saying which of
// them were actually present on the line.
type GCodeInput struct {
	LineNumber    int
	HasLineNumber bool

	Target    axis.Vector // raw, not yet resolved to canonical coordinates
	IJK       [3]float64
	Radius    float64

	FeedRate     float64
	SpindleSpeed float64
	Parameter    float64
	LWord        float64 // G10 L-value

	MotionMode      MotionMode
	FeedRateMode    FeedRateMode
	SelectPlane     Plane
	UnitsMode       UnitsMode
	PathControl     PathControl
	DistanceMode    DistanceMode
	ArcDistanceMode DistanceMode
	AbsoluteOverride bool

	CoordSystem CoordSystem
	Tool        int

	MistCoolant  bool
	FloodCoolant bool
	SpindleMode  SpindleMode

	G92Sub      G92Sub
	ProgramFlow ProgramFlowCode
	Probe       bool

	Flags GCodeFlags
}
