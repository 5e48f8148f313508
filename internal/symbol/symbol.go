package symbol

import (
	"context"
	"fmt"
)

// SymbolLocation represents where a symbol is defined.
type SymbolLocation struct {
	Name      string
	Kind      string // func, method, type, var, const
	FilePath  string // absolute path
	Line      int    // 1-based
	Character int    // 1-based, in bytes
}

func (l SymbolLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.Line, l.Character)
}

// Resolver finds symbol definitions by name.
type Resolver interface {
	FindSymbol(ctx context.Context, name string) ([]SymbolLocation, error)
}
