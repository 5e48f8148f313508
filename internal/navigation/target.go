package navigation

import "fmt"

// Location is a place to jump to.
type Location struct {
	Path   string // absolute file path
	Line   int    // 1-based
	Column int    // 1-based, in bytes
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// Presentation is what a chooser shows for a candidate.
type Presentation struct {
	Text   string // e.g. "NewClient"
	Detail string // e.g. "internal/lsp/client.go:26"
	Kind   string // e.g. "func"
}

func (p Presentation) String() string {
	s := p.Text
	if p.Kind != "" {
		s = p.Kind + " " + s
	}
	if p.Detail != "" {
		s += "  (" + p.Detail + ")"
	}
	return s
}

// Target is a resolved declaration candidate. It is a value: once built by a
// provider it is only read.
type Target struct {
	location     Location
	presentation Presentation
	origin       string
	hasOrigin    bool
}

// NewTarget builds a Target without provider attribution.
func NewTarget(loc Location, pres Presentation) Target {
	return Target{location: loc, presentation: pres}
}

// AttributedTo returns a copy of t attributed to the named provider.
func (t Target) AttributedTo(provider string) Target {
	t.origin = provider
	t.hasOrigin = true
	return t
}

func (t Target) Location() Location { return t.location }

func (t Target) Presentation() Presentation { return t.presentation }

// Origin reports the provider that produced t, if it was attributed.
func (t Target) Origin() (string, bool) { return t.origin, t.hasOrigin }
