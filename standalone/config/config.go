package config

import (
	"encoding/json"
	"math"

	"gopper/axis"
	"gopper/cm"
	"gopper/standalone"

	"github.com/pkg/errors"
)

// LoadConfig parses a JSON configuration string and returns a MachineConfig
func LoadConfig(jsonData []byte) (*standalone.MachineConfig, error) {
	var config standalone.MachineConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *standalone.MachineConfig) {
	// Default mode
	if config.Mode == "" {
		config.Mode = "standalone"
	}

	// Default kinematics
	if config.Kinematics == "" {
		config.Kinematics = "cartesian"
	}

	// Default motion parameters
	if config.DefaultVelocity == 0 {
		config.DefaultVelocity = 50.0 // 50 mm/s
	}
	if config.DefaultAccel == 0 {
		config.DefaultAccel = 500.0 // 500 mm/s^2
	}
	if config.JunctionDeviation == 0 {
		config.JunctionDeviation = 0.05 // 0.05mm
	}

	if config.JunctionAggression == 0 {
		config.JunctionAggression = 1.0
	}
	if config.ChordalTolerance == 0 {
		config.ChordalTolerance = 0.01
	}
	if config.MinLineLength == 0 {
		config.MinLineLength = 0.001
	}
	if config.MinArcSegmentLen == 0 {
		config.MinArcSegmentLen = 0.001
	}

	// Apply defaults to each axis
	for name, a := range config.Axes {
		if a.MaxVelocity == 0 {
			a.MaxVelocity = 300.0
		}
		if a.MaxAccel == 0 {
			a.MaxAccel = 1000.0
		}
		if a.HomingVel == 0 {
			a.HomingVel = 5.0
		}
		if a.StepsPerMM == 0 {
			a.StepsPerMM = 80.0 // Common value
		}
		if a.JerkMax == 0 {
			a.JerkMax = 500_000_000
		}
		if a.JerkHigh == 0 {
			a.JerkHigh = 1_000_000_000
		}
		if a.JunctionDev == 0 {
			a.JunctionDev = config.JunctionDeviation
		}
		if a.SearchVelocity == 0 {
			a.SearchVelocity = a.HomingVel * 60 // mm/s -> mm/min
		}
		if a.LatchVelocity == 0 {
			a.LatchVelocity = a.SearchVelocity / 10
		}
		if a.LatchBackoff == 0 {
			a.LatchBackoff = 5
		}
		if a.ZeroBackoff == 0 {
			a.ZeroBackoff = 1
		}
		if a.HomingDir == 0 {
			a.HomingDir = -1
		}
		config.Axes[name] = a
	}

	// Apply defaults to heaters
	for name, heater := range config.Heaters {
		if heater.MinTemp == 0 {
			heater.MinTemp = 0.0
		}
		if heater.MaxTemp == 0 {
			heater.MaxTemp = 300.0
		}
		if heater.MaxPower == 0 {
			heater.MaxPower = 1.0
		}
		config.Heaters[name] = heater
	}
}

// DefaultCartesianConfig returns a default configuration for a Cartesian printer
func DefaultCartesianConfig() *standalone.MachineConfig {
	return &standalone.MachineConfig{
		Mode:       "standalone",
		Kinematics: "cartesian",
		Axes: map[string]standalone.AxisConfig{
			"x": {
				StepPin:     "gpio0",
				DirPin:      "gpio1",
				EnablePin:   "gpio8",
				StepsPerMM:  80.0,
				MaxVelocity: 300.0,
				MaxAccel:    3000.0,
				HomingVel:   50.0,
				MinPosition: 0.0,
				MaxPosition: 220.0,
			},
			"y": {
				StepPin:     "gpio2",
				DirPin:      "gpio3",
				EnablePin:   "gpio8",
				StepsPerMM:  80.0,
				MaxVelocity: 300.0,
				MaxAccel:    3000.0,
				HomingVel:   50.0,
				MinPosition: 0.0,
				MaxPosition: 220.0,
			},
			"z": {
				StepPin:     "gpio4",
				DirPin:      "gpio5",
				EnablePin:   "gpio8",
				StepsPerMM:  400.0,
				MaxVelocity: 10.0,
				MaxAccel:    100.0,
				HomingVel:   5.0,
				MinPosition: 0.0,
				MaxPosition: 250.0,
			},
			"e": {
				StepPin:     "gpio6",
				DirPin:      "gpio7",
				EnablePin:   "gpio8",
				StepsPerMM:  96.0,
				MaxVelocity: 50.0,
				MaxAccel:    5000.0,
				HomingVel:   0.0,
				MinPosition: -10000.0,
				MaxPosition: 10000.0,
			},
		},
		Endstops: map[string]standalone.EndstopConfig{
			"x": {Pin: "gpio20", Invert: false},
			"y": {Pin: "gpio21", Invert: false},
			"z": {Pin: "gpio22", Invert: false},
		},
		Heaters: map[string]standalone.HeaterConfig{
			"extruder": {
				SensorPin: "ADC0",
				HeaterPin: "gpio10",
				PID:       [3]float64{0.1, 0.5, 0.05},
				MinTemp:   0.0,
				MaxTemp:   300.0,
				MaxPower:  1.0,
			},
			"bed": {
				SensorPin: "ADC1",
				HeaterPin: "gpio11",
				PID:       [3]float64{0.2, 1.0, 0.1},
				MinTemp:   0.0,
				MaxTemp:   150.0,
				MaxPower:  1.0,
			},
		},
		DefaultVelocity:    50.0,
		DefaultAccel:       500.0,
		JunctionDeviation:  0.05,
		JunctionAggression: 1.0,
		ChordalTolerance:   0.01,
		MinLineLength:      0.001,
		MinArcSegmentLen:   0.001,
	}
}

var axisLetterIndex = map[string]axis.Index{
	"x": axis.X, "y": axis.Y, "z": axis.Z,
	"a": axis.A, "b": axis.B, "c": axis.C,
}

// Validate rejects a configuration whose enabled axes carry a
// non-positive jerk or velocity ceiling: those values divide the planner
// and runtime math (spec.md §4.3.2's recip_jerk, §4.3.4's a_max), so a
// zero here would propagate as NaN rather than a caught error.
func Validate(config *standalone.MachineConfig) error {
	for name, a := range config.Axes {
		if a.Disabled {
			continue
		}
		if a.MaxVelocity <= 0 {
			return errors.Errorf("axis %s: max_velocity must be positive", name)
		}
		if a.JerkMax <= 0 {
			return errors.Errorf("axis %s: jerk_max must be positive", name)
		}
		if a.JunctionDev < 0 {
			return errors.Errorf("axis %s: junction_dev must not be negative", name)
		}
	}
	return nil
}

// ToCanonical converts the JSON-friendly, name-keyed MachineConfig into
// the canonical six-axis axis.Set and cm.Config the motion core runs on
// (spec.md §3.1, §9: axis letters resolve to fixed indices X..C).
func ToCanonical(config *standalone.MachineConfig) (axis.Set, cm.Config) {
	var axes axis.Set
	for i := range axes {
		axes[i] = axis.DefaultConfig()
		axes[i].Mode = axis.ModeDisabled
	}

	for name, a := range config.Axes {
		idx, ok := axisLetterIndex[name]
		if !ok {
			continue
		}
		cfg := axis.Config{
			Mode:           axis.ModeStandard,
			VelocityMax:    a.MaxVelocity * 60, // mm/s -> mm/min
			FeedrateMax:    a.MaxVelocity * 60,
			TravelMin:      math.Inf(-1),
			TravelMax:      math.Inf(1),
			JerkMax:        a.JerkMax,
			JerkHigh:       a.JerkHigh,
			JunctionDev:    a.JunctionDev,
			HomingInput:    a.HomingInput,
			HomingDir:      a.HomingDir,
			SearchVelocity: a.SearchVelocity,
			LatchVelocity:  a.LatchVelocity,
			LatchBackoff:   a.LatchBackoff,
			ZeroBackoff:    a.ZeroBackoff,
		}
		if a.MinPosition != 0 || a.MaxPosition != 0 {
			cfg.TravelMin, cfg.TravelMax = a.MinPosition, a.MaxPosition
		}
		if a.Disabled {
			cfg.Mode = axis.ModeDisabled
		} else if a.Radius {
			cfg.Mode = axis.ModeRadius
		}
		axes[idx] = cfg
	}

	cfg := cm.DefaultConfig()
	cfg.Axes = axes
	cfg.JunctionAggression = config.JunctionAggression
	cfg.ChordalTolerance = config.ChordalTolerance
	cfg.MinLineLength = config.MinLineLength
	cfg.MinArcSegmentLen = config.MinArcSegmentLen
	return axes, cfg
}
