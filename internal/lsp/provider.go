package lsp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/0muji4/declnav/internal/navigation"
	"github.com/0muji4/declnav/internal/workspace"
)

// ProviderName is the registry name of DefinitionProvider.
const ProviderName = "gopls"

var _ navigation.Provider = (*DefinitionProvider)(nil)

// DefinitionProvider asks a language server for the definition under the
// cursor.
type DefinitionProvider struct {
	analyzer CodeAnalyzer
	rootPath string
	readFile func(string) ([]byte, error)
}

func NewDefinitionProvider(analyzer CodeAnalyzer, rootPath string) *DefinitionProvider {
	return &DefinitionProvider{analyzer: analyzer, rootPath: rootPath, readFile: os.ReadFile}
}

func (p *DefinitionProvider) Name() string { return ProviderName }

func (p *DefinitionProvider) Resolve(ctx context.Context, doc navigation.Document, offset int) ([]navigation.Target, error) {
	src := workspace.NewFile(doc.Path(), doc.Content())
	line, col := src.Position(offset)

	// LSPは 0-based index なので -1 する
	locations, err := p.analyzer.Definition(ctx, doc.Path(), line-1, src.UTF16Column(line, col))
	if err != nil {
		if unavailable(err) {
			return nil, fmt.Errorf("%w: %w", navigation.ErrAnalysisUnavailable, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var rerr *ResponseError
		if errors.As(err, &rerr) {
			// gopls answers "no identifier found" and similar as errors.
			return nil, nil
		}
		return nil, err
	}

	targets := make([]navigation.Target, 0, len(locations))
	for _, l := range locations {
		loc := p.toLocation(l)
		pres := navigation.Presentation{
			Text:   p.name(loc),
			Detail: p.detail(loc),
		}
		targets = append(targets, navigation.NewTarget(loc, pres).AttributedTo(p.Name()))
	}
	return targets, nil
}

func unavailable(err error) bool {
	if errors.Is(err, ErrNotReady) {
		return true
	}
	var rerr *ResponseError
	return errors.As(err, &rerr) &&
		(rerr.Code == CodeServerNotInitialized || rerr.Code == CodeContentModified)
}

func (p *DefinitionProvider) toLocation(l Location) navigation.Location {
	path := uriToPath(l.URI)
	line := l.Range.Start.Line + 1
	col := l.Range.Start.Character + 1
	if data, err := p.readFile(path); err == nil {
		col = workspace.NewFile(path, data).ByteColumn(line, l.Range.Start.Character)
	}
	return navigation.Location{Path: path, Line: line, Column: col}
}

// name returns the identifier at loc, or the file name when it cannot be
// read.
func (p *DefinitionProvider) name(loc navigation.Location) string {
	data, err := p.readFile(loc.Path)
	if err != nil {
		return filepath.Base(loc.Path)
	}
	text := workspace.NewFile(loc.Path, data).Line(loc.Line)
	start := loc.Column - 1
	if start < 0 || start >= len(text) {
		return filepath.Base(loc.Path)
	}
	end := start
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if end == start {
		return filepath.Base(loc.Path)
	}
	return string(text[start:end])
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (p *DefinitionProvider) detail(loc navigation.Location) string {
	path := loc.Path
	if rel, err := filepath.Rel(p.rootPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		path = filepath.ToSlash(rel)
	}
	return fmt.Sprintf("%s:%d", path, loc.Line)
}

func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	if u, err := url.Parse(uri); err == nil {
		return filepath.FromSlash(u.Path)
	}
	return strings.TrimPrefix(uri, "file://")
}
