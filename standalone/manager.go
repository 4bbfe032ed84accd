package standalone

import (
	"gopper/axis"
	"gopper/cm"
	"gopper/core"
	"gopper/hal"
	"gopper/planner"
	"gopper/runtime"
	"gopper/standalone/config"
	"gopper/standalone/gcode"
	"gopper/stepper"

	"github.com/pkg/errors"
)

// Manager coordinates the whole motion core for one machine: it wires the
// tokenizer, canonical machine, planner, runtime and DDA exactly the way
// spec.md §5's super-loop expects, generalized from this package's prior
// 4-axis XYZE toy model to the full {X,Y,Z,A,B,C} canonical model.
type Manager struct {
	config *MachineConfig

	parser *gcode.Parser
	cm     *cm.CM

	planner *planner.Planner
	runtime *runtime.Runtime
	dda     *stepper.DDA

	outputBuffer []byte
	inputBuffer  []byte

	initialized bool
	running     bool
}

// NewManager creates a new manager from raw JSON config bytes.
func NewManager(configData []byte) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}
	return NewManagerWithConfig(cfg)
}

// NewManagerWithConfig creates a manager with an already-loaded config.
func NewManagerWithConfig(cfg *MachineConfig) (*Manager, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid machine config")
	}

	_, cmConfig := config.ToCanonical(cfg)

	pl := planner.New(cmConfig.Axes, cmConfig.JunctionAggression, planner.DefaultCapacity)
	dda := stepper.New()
	rt := runtime.New(cmConfig.Axes, pl, dda)
	machine := cm.New(cmConfig, pl)
	machine.AttachRuntime(rt)

	mgr := &Manager{
		config:       cfg,
		parser:       gcode.NewParser(),
		cm:           machine,
		planner:      pl,
		runtime:      rt,
		dda:          dda,
		inputBuffer:  make([]byte, 0, 256),
		outputBuffer: make([]byte, 0, 256),
	}
	return mgr, nil
}

// Initialize attaches each backend to the axis its map key names (x/X,
// y/Y, ...); keys that name no axis are skipped.
func (m *Manager) Initialize(gpioDriver core.GPIODriver, backends map[string]core.StepperBackend) error {
	if m.initialized {
		return errors.New("already initialized")
	}
	for name, backend := range backends {
		idx, ok := axisIndexForName(name)
		if !ok {
			continue
		}
		m.dda.AttachMotor(idx, backend, false)
	}
	m.initialized = true
	return nil
}

// SetSwitch registers the homing/limit/probe switch for one axis letter.
func (m *Manager) SetSwitch(name string, sw hal.Switch) {
	if idx, ok := axisIndexForName(name); ok {
		m.cm.SetSwitch(idx, sw)
	}
}

func axisIndexForName(name string) (axis.Index, bool) {
	switch name {
	case "x", "X":
		return axis.X, true
	case "y", "Y":
		return axis.Y, true
	case "z", "Z":
		return axis.Z, true
	case "a", "A":
		return axis.A, true
	case "b", "B":
		return axis.B, true
	case "c", "C":
		return axis.C, true
	default:
		return 0, false
	}
}

// ProcessLine tokenises and executes one line of G-code (spec.md §6.1).
func (m *Manager) ProcessLine(line string) error {
	_, err := m.cm.ProcessLine(m.parser, line)
	return err
}

// RealtimeCommand applies a single-character real-time command ahead of
// the line buffer (spec.md §6.2).
func (m *Manager) RealtimeCommand(ch byte) {
	m.cm.RealtimeCommand(ch)
}

// ProcessByte feeds one byte of streamed serial input, line-buffering it
// and dispatching on CR/LF (unchanged from the teacher's byte-at-a-time
// serial framing).
func (m *Manager) ProcessByte(b byte) error {
	m.inputBuffer = append(m.inputBuffer, b)

	if b == '\n' || b == '\r' {
		line := string(m.inputBuffer)
		m.inputBuffer = m.inputBuffer[:0]

		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r' || line[len(line)-1] == ' ') {
			line = line[:len(line)-1]
		}

		if len(line) > 0 {
			if err := m.ProcessLine(line); err != nil {
				m.SendResponse(err.Error() + "\n")
				return nil
			}
			m.SendResponse("ok\n")
		}
	}
	return nil
}

// Tick runs one pass of the main super-loop's non-stepper tasks: runtime
// segment prep, planner-driven cycles (homing/probing/arc), CM cycle
// advance (spec.md §5's task sequence, minus the stepper load-ready check
// which the DDA's own LoadSegment call already folds in).
func (m *Manager) Tick() {
	m.cm.Tick()
	m.runtime.Tick()
}

// SendResponse queues a response to be sent to the host.
func (m *Manager) SendResponse(response string) {
	m.outputBuffer = append(m.outputBuffer, []byte(response)...)
}

// GetOutput returns any pending output and clears the buffer.
func (m *Manager) GetOutput() []byte {
	if len(m.outputBuffer) == 0 {
		return nil
	}
	output := make([]byte, len(m.outputBuffer))
	copy(output, m.outputBuffer)
	m.outputBuffer = m.outputBuffer[:0]
	return output
}

// Start begins operation.
func (m *Manager) Start() error {
	if !m.initialized {
		return errors.New("manager not initialized")
	}
	m.running = true
	m.SendResponse("Gopper Motion Core Ready\n")
	return nil
}

// Stop halts all operation and flushes the planner ring.
func (m *Manager) Stop() {
	m.running = false
	m.planner.Flush()
}

// IsRunning returns whether the manager is running.
func (m *Manager) IsRunning() bool { return m.running }

// StatusReport returns the CM's current structured status (spec.md §6.4).
func (m *Manager) StatusReport() interface{} { return m.cm.StatusReport() }

// EmergencyStop halts motion and forces a reset.
func (m *Manager) EmergencyStop() {
	m.Stop()
	m.cm.RealtimeCommand(24) // ^X reset
}
