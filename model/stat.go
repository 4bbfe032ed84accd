// Package model holds the data types shared across the canonical machine,
// arc generator, planner and runtime: the three shadows of G-code state
// (spec.md §3.2), the move block (§3.3), the segment (§3.4) and the Stat
// control-flow discriminant (§7, §9).
package model

// Stat is the run-to-completion status every motion-core call returns.
// Eagain is a scheduling hint, never an error; callers restart the main
// loop from the top on Eagain rather than treating it as failure.
type Stat int8

const (
	StatOK Stat = iota
	StatEagain
	StatNoop
	StatErr
)

func (s Stat) String() string {
	switch s {
	case StatOK:
		return "ok"
	case StatEagain:
		return "eagain"
	case StatNoop:
		return "noop"
	case StatErr:
		return "error"
	default:
		return "unknown"
	}
}

// ErrKind classifies a StatErr per the taxonomy in spec.md §7.
type ErrKind int

const (
	ErrNone ErrKind = iota
	ErrInput              // malformed G-code, unknown word, out-of-range value
	ErrSemantic           // zero-length move, arc spec error, soft limit, missing axis word
	ErrRuntimeAssertion   // magic-word corruption, ring invariant violation -> panic state
	ErrAlarm              // limit switch outside homing, stall, over-travel -> alarm state
	ErrShutdown           // e-stop / interlock
)

func (k ErrKind) String() string {
	switch k {
	case ErrInput:
		return "input_error"
	case ErrSemantic:
		return "semantic_error"
	case ErrRuntimeAssertion:
		return "runtime_assertion"
	case ErrAlarm:
		return "alarm"
	case ErrShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// Error wraps a human-readable message and its taxonomy kind. Constructed
// with github.com/pkg/errors at call sites so a stack trace travels with
// it; CM/Planner never format strings on the ISR tier (spec.md §7).
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a classified Error.
func NewError(kind ErrKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
