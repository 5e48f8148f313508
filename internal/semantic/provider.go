package semantic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/0muji4/declnav/internal/navigation"
)

// ProviderName is the registry name of Provider.
const ProviderName = "types"

var _ navigation.Provider = (*Provider)(nil)

// Provider answers from the type-checked Index. It is the most precise
// provider, and the one that reports analysis as unavailable while the
// index loads.
type Provider struct {
	index    *Index
	rootPath string
}

func NewProvider(index *Index, rootPath string) *Provider {
	return &Provider{index: index, rootPath: rootPath}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Resolve(_ context.Context, doc navigation.Document, offset int) ([]navigation.Target, error) {
	decl, found, err := p.index.Lookup(doc.Path(), offset)
	if errors.Is(err, ErrNotReady) {
		return nil, fmt.Errorf("%w: %w", navigation.ErrAnalysisUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	loc := navigation.Location{
		Path:   decl.Position.Filename,
		Line:   decl.Position.Line,
		Column: decl.Position.Column,
	}
	pres := navigation.Presentation{
		Text:   decl.Name,
		Kind:   decl.Kind,
		Detail: p.detail(decl),
	}
	return []navigation.Target{navigation.NewTarget(loc, pres).AttributedTo(p.Name())}, nil
}

func (p *Provider) detail(d Declaration) string {
	path := d.Position.Filename
	if rel, err := filepath.Rel(p.rootPath, path); err == nil && !filepath.IsAbs(rel) && rel[0] != '.' {
		path = filepath.ToSlash(rel)
	} else if d.Package != "" {
		path = d.Package + "/" + filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d", path, d.Position.Line)
}
