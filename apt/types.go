package apt

// Mode controls error handling behavior for listing decode and decompilation.
type Mode int

const (
	// Strict returns an error on the first unhandled instruction or invalid entry.
	Strict Mode = iota
	// BestEffort continues with placeholders, collecting diagnostics.
	BestEffort
)

// String returns the mode name as accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case BestEffort:
		return "besteffort"
	default:
		return "unknown"
	}
}

// ParseMode parses "strict" or "besteffort".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "strict":
		return Strict, true
	case "besteffort":
		return BestEffort, true
	default:
		return Strict, false
	}
}

// Options configures decode and decompilation behavior.
type Options struct {
	Mode Mode

	// MaxSteps is a safety cap on dispatched instructions per function; 0 uses DefaultMaxSteps.
	MaxSteps int

	// Workers bounds how many actions are decompiled concurrently; 0 uses DefaultWorkers.
	Workers int

	// Indent is the indentation unit for nested function bodies; "" uses DefaultIndent.
	Indent string
}

// DefaultOptions returns Strict mode with default limits.
func DefaultOptions() Options {
	return Options{Mode: Strict}
}

// DefaultMaxSteps is the default safety cap for dispatch loops.
const DefaultMaxSteps = 1 << 20

// DefaultWorkers is the default number of concurrently decompiled actions.
const DefaultWorkers = 4

// DefaultIndent indents nested function bodies.
const DefaultIndent = "    "

// EffectiveMaxSteps returns the effective step limit.
func (o Options) EffectiveMaxSteps() int {
	if o.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return o.MaxSteps
}

// EffectiveWorkers returns the effective worker count.
func (o Options) EffectiveWorkers() int {
	if o.Workers <= 0 {
		return DefaultWorkers
	}
	return o.Workers
}

// EffectiveIndent returns the effective indentation unit.
func (o Options) EffectiveIndent() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}

// Diagnostic kinds.
const (
	DiagUnhandled  = "unhandled"  // no dispatch table accepted the instruction
	DiagUnbalanced = "unbalanced" // nodes left on the stack at the end of a function
	DiagSuspect    = "suspect"    // instruction with known questionable decompilation
	DiagInvalid    = "invalid"    // malformed listing entry
	DiagOverflow   = "overflow"   // step limit reached
)

// Diagnostic records one anomaly found during decode or decompilation.
type Diagnostic struct {
	Index int    // instruction index within Func's code
	Kind  string // see Diag* constants
	Msg   string
	Func  string // action or function name, set when aggregating diagnostics
}

// Result pairs a value with accumulated diagnostics.
type Result[T any] struct {
	Value T
	Diags []Diagnostic
}

// TagFunc sets the Func field on diagnostics that don't already have one.
func TagFunc(diags []Diagnostic, name string) {
	for i := range diags {
		if diags[i].Func == "" {
			diags[i].Func = name
		}
	}
}
