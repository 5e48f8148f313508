package lsp

import "context"

// CodeAnalyzer defines operations for code structural analysis.
type CodeAnalyzer interface {
	Definition(ctx context.Context, filePath string, line, char int) ([]Location, error)
	Close() error
}
