package cascade

import "github.com/goliatone/go-regioncascade/pkg/region"

// Phase is the lifecycle state of the whole chain.
type Phase int

const (
	// PhaseIdle is the state before Initialize.
	PhaseIdle Phase = iota
	// PhaseRestoring means a saved ancestor chain is being replayed; selectors
	// stay disabled until it completes.
	PhaseRestoring
	// PhaseInteractive means the chain accepts user changes.
	PhaseInteractive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRestoring:
		return "restoring"
	case PhaseInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Option is one candidate region in a selector.
type Option struct {
	ID       string
	Name     string
	Level    string
	Disabled bool
	Selected bool
}

// Selector is one administrative level in the chain.
type Selector struct {
	Index    int
	Level    string
	ID       string
	Label    string
	Value    string
	Disabled bool
	Options  []Option
}

// Snapshot is an immutable view of the controller used by renderers.
type Snapshot struct {
	Phase         Phase
	Busy          bool
	Stalled       bool
	Selectors     []Selector
	Committed     []region.Committed
	Pending       []string
	AddEnabled    bool
	SubmitEnabled bool
	HiddenValue   string
	Alert         string
	Placeholder   string
}

// Selector returns the selector at index.
func (s Snapshot) Selector(index int) (Selector, bool) {
	if index < 0 || index >= len(s.Selectors) {
		return Selector{}, false
	}
	return s.Selectors[index], true
}
