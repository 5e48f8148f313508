// Package telemetry records navigation events.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/0muji4/declnav/internal/navigation"
)

var (
	_ navigation.Telemetry = (*LogRecorder)(nil)
	_ navigation.Telemetry = (*FileRecorder)(nil)
)

// LogRecorder writes events to a logger.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, e navigation.Event) error {
	r.logger.LogAttrs(ctx, slog.LevelDebug, "event",
		slog.String("name", e.Name),
		slog.String("request", e.Context.RequestID),
		slog.String("provider", e.Provider),
		slog.String("path", e.Context.Path),
		slog.Int("offset", e.Context.Offset),
	)
	return nil
}

// record is the JSON form of an event.
type record struct {
	Time      time.Time `json:"time"`
	Name      string    `json:"name"`
	RequestID string    `json:"request_id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Offset    int       `json:"offset"`
	Provider  string    `json:"provider,omitempty"`
}

// FileRecorder appends events as JSON lines.
type FileRecorder struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// NewFileRecorder writes events to w.
func NewFileRecorder(w io.Writer) *FileRecorder {
	return &FileRecorder{w: w, now: time.Now}
}

// OpenFile appends events to the file at path, creating it if needed.
func OpenFile(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	r := NewFileRecorder(f)
	r.c = f
	return r, nil
}

func (r *FileRecorder) Record(_ context.Context, e navigation.Event) error {
	line, err := json.Marshal(record{
		Time:      r.now().UTC(),
		Name:      e.Name,
		RequestID: e.Context.RequestID,
		Action:    e.Context.Action,
		Path:      e.Context.Path,
		Offset:    e.Context.Offset,
		Provider:  e.Provider,
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("telemetry: write: %w", err)
	}
	return nil
}

func (r *FileRecorder) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
