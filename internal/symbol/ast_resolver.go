package symbol

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

var _ Resolver = (*ASTResolver)(nil)

// ASTResolver resolves symbol names to source locations using go/ast.
// Results are in directory walk order, then source order.
type ASTResolver struct {
	rootPath string
}

func NewASTResolver(rootPath string) *ASTResolver {
	return &ASTResolver{rootPath: rootPath}
}

func (r *ASTResolver) FindSymbol(ctx context.Context, name string) ([]SymbolLocation, error) {
	var results []SymbolLocation
	fset := token.NewFileSet()

	add := func(ident *ast.Ident, kind string) {
		if ident.Name != name {
			return
		}
		pos := fset.Position(ident.Pos())
		results = append(results, SymbolLocation{
			Name:      name,
			Kind:      kind,
			FilePath:  pos.Filename,
			Line:      pos.Line,
			Character: pos.Column,
		})
	}

	err := filepath.WalkDir(r.rootPath, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}

		// ディレクトリのスキップ
		if d.IsDir() {
			base := d.Name()
			if base == "vendor" || base == "testdata" || base == "node_modules" ||
				(strings.HasPrefix(base, ".") && path != r.rootPath) {
				return filepath.SkipDir
			}
			return nil
		}

		// .goファイルのみ、テストファイルは除外
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil
		}

		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if decl.Recv != nil {
					add(decl.Name, "method")
				} else {
					add(decl.Name, "func")
				}
			case *ast.GenDecl:
				for _, spec := range decl.Specs {
					switch spec := spec.(type) {
					case *ast.TypeSpec:
						add(spec.Name, "type")
					case *ast.ValueSpec:
						kind := "var"
						if decl.Tok == token.CONST {
							kind = "const"
						}
						for _, ident := range spec.Names {
							add(ident, kind)
						}
					}
				}
			}
		}
		return nil
	})

	return results, err
}
