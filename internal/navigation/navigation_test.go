package navigation

import (
	"context"
	"fmt"
	"sync"
)

// fakeDoc is an in-memory Document.
type fakeDoc struct {
	path    string
	content []byte
	virtual bool
}

func (d fakeDoc) Path() string              { return d.path }
func (d fakeDoc) Content() []byte           { return d.content }
func (d fakeDoc) InVirtualSpace(_ int) bool { return d.virtual }

func newDoc() fakeDoc {
	return fakeDoc{path: "/ws/main.go", content: []byte("package main\n")}
}

func loc(name string) Location {
	return Location{Path: "/ws/" + name + ".go", Line: 1, Column: 1}
}

func target(name string) Target {
	return NewTarget(loc(name), Presentation{Text: name})
}

func names(ts []Target) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Presentation().Text)
	}
	return out
}

// fakeProvider returns canned results and counts its calls.
type fakeProvider struct {
	name    string
	targets []Target
	err     error
	block   bool

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Resolve(ctx context.Context, _ Document, _ int) ([]Target, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.targets, p.err
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func returning(name string, targets ...Target) *fakeProvider {
	return &fakeProvider{name: name, targets: targets}
}

func unavailable(name string) *fakeProvider {
	return &fakeProvider{name: name, err: fmt.Errorf("%s: index busy: %w", name, ErrAnalysisUnavailable)}
}

func mustRegistry(providers ...Provider) *Registry {
	r, err := NewRegistry(providers...)
	if err != nil {
		panic(err)
	}
	return r
}
