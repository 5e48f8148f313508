package navigation

import (
	"context"
	"errors"
	"fmt"
)

// ErrAnalysisUnavailable is returned (possibly wrapped) by a provider whose
// semantic data is not computed yet. It is not the same as "no result".
var ErrAnalysisUnavailable = errors.New("analysis unavailable")

// Document is the file a request is made in. The navigation core never looks
// inside it; it hands it to providers as is.
type Document interface {
	Path() string
	Content() []byte
}

// virtualSpacer is implemented by documents that can tell whether an offset
// lies past the end of real text.
type virtualSpacer interface {
	InVirtualSpace(offset int) bool
}

// Provider is one strategy for resolving the symbol at an offset.
//
// Resolve returns nil (or an empty slice) when the provider has nothing to
// say. It returns an error wrapping ErrAnalysisUnavailable when it cannot
// answer yet. Any other error is a provider fault.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, doc Document, offset int) ([]Target, error)
}

// Registry is the ordered, read-only list of providers. Earlier providers
// take priority.
type Registry struct {
	providers []Provider
}

// NewRegistry returns a registry with the providers in the given order. It is
// an error to register the same name twice.
func NewRegistry(providers ...Provider) (*Registry, error) {
	seen := make(map[string]bool, len(providers))
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("navigation: provider #%d is nil", i)
		}
		name := p.Name()
		if seen[name] {
			return nil, fmt.Errorf("navigation: provider %q registered twice", name)
		}
		seen[name] = true
	}
	return &Registry{providers: append([]Provider(nil), providers...)}, nil
}

// Providers returns the providers in priority order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Names returns the provider names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.providers) }
