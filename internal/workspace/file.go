package workspace

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// File is an open source file. It satisfies navigation.Document.
type File struct {
	path    string
	content []byte
	lines   []int // byte offset of each line start
}

// NewFile wraps content read from path.
func NewFile(path string, content []byte) *File {
	lines := []int{0}
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &File{path: path, content: content, lines: lines}
}

func (f *File) Path() string    { return f.path }
func (f *File) Content() []byte { return f.content }

// InVirtualSpace reports whether offset lies outside the text, where an
// editor caret can sit but nothing can be resolved.
func (f *File) InVirtualSpace(offset int) bool {
	return offset < 0 || offset > len(f.content)
}

// Offset converts a 1-based line and 1-based byte column to an offset.
func (f *File) Offset(line, column int) (int, error) {
	if line < 1 || line > len(f.lines) {
		return 0, fmt.Errorf("workspace: %s: line %d out of range [1,%d]", f.path, line, len(f.lines))
	}
	start := f.lines[line-1]
	end := len(f.content)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	if column < 1 || start+column-1 > end {
		return 0, fmt.Errorf("workspace: %s:%d: column %d out of range", f.path, line, column)
	}
	return start + column - 1, nil
}

// Position converts an offset to a 1-based line and byte column.
func (f *File) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.content) {
		offset = len(f.content)
	}
	// lines is sorted; find the last start <= offset.
	lo, hi := 0, len(f.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - f.lines[lo] + 1
}

// Line returns the text of a 1-based line without its newline.
func (f *File) Line(line int) []byte {
	if line < 1 || line > len(f.lines) {
		return nil
	}
	start := f.lines[line-1]
	end := len(f.content)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	return bytes.TrimSuffix(f.content[start:end], []byte("\r"))
}

// UTF16Column converts a 1-based byte column on line to a 0-based UTF-16
// character index, as used by LSP.
func (f *File) UTF16Column(line, column int) int {
	text := f.Line(line)
	n := column - 1
	if n > len(text) {
		n = len(text)
	}
	units := 0
	for _, r := range string(text[:n]) {
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return units
}

// ByteColumn converts a 0-based UTF-16 character index on line to a
// 1-based byte column.
func (f *File) ByteColumn(line, char int) int {
	text := f.Line(line)
	units, i := 0, 0
	for i < len(text) && units < char {
		r, size := utf8.DecodeRune(text[i:])
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return i + 1
}
