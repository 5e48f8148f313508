package symbol

import (
	"go/ast"
	"go/token"
)

// IdentAt returns the identifier of f that covers offset, or nil. An offset
// just past the end of an identifier still selects it, like an editor caret
// placed after the last letter.
func IdentAt(fset *token.FileSet, f *ast.File, offset int) *ast.Ident {
	tf := fset.File(f.Pos())
	if tf == nil || offset < 0 || offset > tf.Size() {
		return nil
	}
	pos := tf.Pos(offset)

	var found *ast.Ident
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil || found != nil {
			return false
		}
		if pos < n.Pos() || pos > n.End() {
			return false
		}
		if id, ok := n.(*ast.Ident); ok {
			found = id
			return false
		}
		return true
	})
	return found
}
