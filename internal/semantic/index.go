package semantic

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/tools/go/packages"

	"github.com/0muji4/declnav/internal/symbol"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// ErrNotReady is returned while the index is still loading.
var ErrNotReady = errors.New("semantic: index is loading")

// Index holds type-checked packages of a workspace. It is filled in the
// background by Start; lookups fail with ErrNotReady until then.
type Index struct {
	dir      string
	patterns []string
	logger   *slog.Logger

	ready chan struct{}

	mu    sync.RWMutex
	fset  *token.FileSet
	files map[string]*indexedFile // by absolute path
	err   error
}

type indexedFile struct {
	file *ast.File
	info *types.Info
}

// NewIndex returns an index of the packages matching patterns in dir. If no
// pattern is given, "./..." is used.
func NewIndex(dir string, logger *slog.Logger, patterns ...string) *Index {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Index{
		dir:      dir,
		patterns: patterns,
		logger:   logger,
		ready:    make(chan struct{}),
		files:    make(map[string]*indexedFile),
	}
}

// Start loads the packages in a new goroutine.
func (ix *Index) Start(ctx context.Context) {
	go func() {
		err := ix.load(ctx)
		ix.mu.Lock()
		ix.err = err
		ix.mu.Unlock()
		close(ix.ready)
		if err != nil {
			ix.logger.Warn("semantic index failed", "dir", ix.dir, "err", err)
			return
		}
		ix.logger.Info("semantic index ready", "dir", ix.dir)
	}()
}

// Ready is closed when loading has finished, successfully or not.
func (ix *Index) Ready() <-chan struct{} { return ix.ready }

// Wait blocks until the index is ready and returns the load error.
func (ix *Index) Wait(ctx context.Context) error {
	select {
	case <-ix.ready:
		ix.mu.RLock()
		defer ix.mu.RUnlock()
		return ix.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ix *Index) load(ctx context.Context) error {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Dir:     ix.dir,
		Mode:    LoadMode,
		Fset:    fset,
	}

	ix.logger.Debug("loading packages", "dir", ix.dir, "patterns", ix.patterns)
	pkgs, err := packages.Load(cfg, ix.patterns...)
	if err != nil {
		return fmt.Errorf("failed to load packages: %w", err)
	}

	files := make(map[string]*indexedFile)
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			// Broken packages are still indexed; their well-formed parts resolve.
			ix.logger.Debug("package error", "pkg", pkg.PkgPath, "err", e)
		}
		if pkg.TypesInfo == nil {
			continue
		}
		for _, f := range pkg.Syntax {
			path := filepath.Clean(fset.File(f.Pos()).Name())
			files[path] = &indexedFile{file: f, info: pkg.TypesInfo}
		}
	}

	ix.mu.Lock()
	ix.fset = fset
	ix.files = files
	ix.mu.Unlock()
	return nil
}

// Declaration is the object an identifier refers to.
type Declaration struct {
	Name     string
	Kind     string
	Package  string
	Position token.Position
}

// Lookup returns the declaration referred to by the identifier at offset in
// the file at path. found is false when the file is not indexed or there is
// no resolvable identifier at offset.
func (ix *Index) Lookup(path string, offset int) (decl Declaration, found bool, err error) {
	select {
	case <-ix.ready:
	default:
		return Declaration{}, false, ErrNotReady
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.err != nil {
		return Declaration{}, false, nil
	}

	entry, ok := ix.files[filepath.Clean(path)]
	if !ok {
		return Declaration{}, false, nil
	}

	ident := symbol.IdentAt(ix.fset, entry.file, offset)
	if ident == nil {
		return Declaration{}, false, nil
	}

	obj := entry.info.Uses[ident]
	if obj == nil {
		obj = entry.info.Defs[ident]
	}
	if obj == nil || !obj.Pos().IsValid() {
		return Declaration{}, false, nil
	}

	d := Declaration{
		Name:     obj.Name(),
		Kind:     objectKind(obj),
		Position: ix.fset.Position(obj.Pos()),
	}
	if obj.Pkg() != nil {
		d.Package = obj.Pkg().Path()
	}
	return d, true, nil
}

func objectKind(obj types.Object) string {
	switch obj := obj.(type) {
	case *types.Func:
		if sig, ok := obj.Type().(*types.Signature); ok && sig.Recv() != nil {
			return "method"
		}
		return "func"
	case *types.TypeName:
		return "type"
	case *types.Const:
		return "const"
	case *types.Var:
		if obj.IsField() {
			return "field"
		}
		return "var"
	case *types.PkgName:
		return "package"
	case *types.Label:
		return "label"
	default:
		return "object"
	}
}
