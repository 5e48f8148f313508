package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ FileReader = (*FSReader)(nil)

// FSReader reads files from the local filesystem.
type FSReader struct {
	rootPath string
}

func NewFSReader(rootPath string) *FSReader {
	return &FSReader{rootPath: filepath.Clean(rootPath)}
}

// Root returns the directory reads are confined to.
func (r *FSReader) Root() string { return r.rootPath }

// Abs resolves a path relative to the root and rejects paths that escape it.
func (r *FSReader) Abs(path string) (string, error) {
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(r.rootPath, path)
	}
	absPath = filepath.Clean(absPath)

	// パストラバーサル防止
	if absPath != r.rootPath && !strings.HasPrefix(absPath, r.rootPath+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside project root", path)
	}
	return absPath, nil
}

// Rel returns path relative to the root, or path itself if that fails.
func (r *FSReader) Rel(path string) string {
	if rel, err := filepath.Rel(r.rootPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (r *FSReader) ReadFile(path string) (string, error) {
	data, err := r.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBytes is ReadFile without the string conversion.
func (r *FSReader) ReadBytes(path string) ([]byte, error) {
	absPath, err := r.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(absPath)
}

// Open loads a file as a Document.
func (r *FSReader) Open(path string) (*File, error) {
	absPath, err := r.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("workspace: open %s: %w", path, err)
	}
	return NewFile(absPath, data), nil
}
