package symbol

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"

	"github.com/0muji4/declnav/internal/navigation"
)

// Provider names.
const (
	LocalProviderName     = "local"
	WorkspaceProviderName = "workspace"
)

var (
	_ navigation.Provider = (*LocalProvider)(nil)
	_ navigation.Provider = (*WorkspaceProvider)(nil)
)

// parseDocument parses doc with object resolution and returns the
// identifier under offset. A file that does not parse at all yields no
// identifier; partial syntax trees are still used.
func parseDocument(doc navigation.Document, offset int, mode parser.Mode) (*token.FileSet, *ast.Ident) {
	fset := token.NewFileSet()
	f, _ := parser.ParseFile(fset, doc.Path(), doc.Content(), mode)
	if f == nil {
		return nil, nil
	}
	return fset, IdentAt(fset, f, offset)
}

// LocalProvider resolves identifiers whose declaration is in the same file,
// using only the parser's scopes. It needs no workspace analysis and is
// never unavailable.
type LocalProvider struct {
	rootPath string
}

func NewLocalProvider(rootPath string) *LocalProvider {
	return &LocalProvider{rootPath: rootPath}
}

func (p *LocalProvider) Name() string { return LocalProviderName }

func (p *LocalProvider) Resolve(_ context.Context, doc navigation.Document, offset int) ([]navigation.Target, error) {
	fset, ident := parseDocument(doc, offset, 0)
	if ident == nil || ident.Obj == nil || !ident.Obj.Pos().IsValid() {
		return nil, nil
	}

	pos := fset.Position(ident.Obj.Pos())
	loc := navigation.Location{Path: doc.Path(), Line: pos.Line, Column: pos.Column}
	pres := navigation.Presentation{
		Text:   ident.Name,
		Kind:   ident.Obj.Kind.String(),
		Detail: detail(p.rootPath, loc.Path, loc.Line),
	}
	return []navigation.Target{navigation.NewTarget(loc, pres).AttributedTo(p.Name())}, nil
}

// WorkspaceProvider matches the identifier under the cursor by name against
// every package-level declaration in the workspace. It is the least precise
// provider and often returns several candidates.
type WorkspaceProvider struct {
	rootPath string
	resolver Resolver
}

func NewWorkspaceProvider(rootPath string, resolver Resolver) *WorkspaceProvider {
	return &WorkspaceProvider{rootPath: rootPath, resolver: resolver}
}

func (p *WorkspaceProvider) Name() string { return WorkspaceProviderName }

func (p *WorkspaceProvider) Resolve(ctx context.Context, doc navigation.Document, offset int) ([]navigation.Target, error) {
	_, ident := parseDocument(doc, offset, parser.SkipObjectResolution)
	if ident == nil || ident.Name == "_" {
		return nil, nil
	}

	locations, err := p.resolver.FindSymbol(ctx, ident.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("symbol: find %q: %w", ident.Name, err)
	}
	return Targets(p.rootPath, p.Name(), locations), nil
}

// Targets converts locations into navigation targets attributed to
// provider.
func Targets(rootPath, provider string, locations []SymbolLocation) []navigation.Target {
	targets := make([]navigation.Target, 0, len(locations))
	for _, l := range locations {
		loc := navigation.Location{Path: l.FilePath, Line: l.Line, Column: l.Character}
		pres := navigation.Presentation{
			Text:   l.Name,
			Kind:   l.Kind,
			Detail: detail(rootPath, l.FilePath, l.Line),
		}
		targets = append(targets, navigation.NewTarget(loc, pres).AttributedTo(provider))
	}
	return targets
}

func detail(rootPath, path string, line int) string {
	if rel, err := filepath.Rel(rootPath, path); err == nil {
		path = rel
	}
	return fmt.Sprintf("%s:%d", filepath.ToSlash(path), line)
}
