package navigation

// OutcomeKind tells which case of an Outcome is active.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeSingle
	OutcomeMultiple
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeSingle:
		return "single"
	case OutcomeMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Outcome is the result of one resolution request: no target, exactly one,
// or an ordered list of two or more.
type Outcome struct {
	kind    OutcomeKind
	targets []Target
}

// Classify reduces provider output to an Outcome. Order is preserved and the
// input slice is not retained.
func Classify(targets []Target) Outcome {
	switch len(targets) {
	case 0:
		return Outcome{kind: OutcomeNone}
	case 1:
		return Outcome{kind: OutcomeSingle, targets: []Target{targets[0]}}
	default:
		return Outcome{kind: OutcomeMultiple, targets: append([]Target(nil), targets...)}
	}
}

func (o Outcome) Kind() OutcomeKind { return o.kind }

// Single returns the target of a Single outcome.
func (o Outcome) Single() (Target, bool) {
	if o.kind != OutcomeSingle {
		return Target{}, false
	}
	return o.targets[0], true
}

// Multiple returns a copy of the targets of a Multiple outcome.
func (o Outcome) Multiple() ([]Target, bool) {
	if o.kind != OutcomeMultiple {
		return nil, false
	}
	return append([]Target(nil), o.targets...), true
}

// Targets returns a copy of all targets, whatever the kind.
func (o Outcome) Targets() []Target {
	return append([]Target(nil), o.targets...)
}
