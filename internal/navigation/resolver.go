package navigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Resolver queries the providers of a Registry in order. The first provider
// with a non-empty answer wins and later providers are never asked.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver returns a Resolver over registry. logger may be nil.
func NewResolver(registry *Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{registry: registry, logger: logger}
}

// Resolve runs the provider chain for the symbol at offset in doc.
//
// It fails with an error wrapping ErrAnalysisUnavailable as soon as a
// provider reports it, and with ctx.Err() when ctx is cancelled between or
// during provider calls.
func (r *Resolver) Resolve(ctx context.Context, doc Document, offset int) (Outcome, error) {
	for _, p := range r.registry.providers {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		targets, err := p.Resolve(ctx, doc, offset)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		if err != nil {
			if errors.Is(err, ErrAnalysisUnavailable) {
				r.logger.Debug("analysis unavailable", "provider", p.Name(), "err", err)
			}
			// Faults are not swallowed; they go up to the host.
			return Outcome{}, fmt.Errorf("navigation: provider %s: %w", p.Name(), err)
		}

		if len(targets) > 0 {
			r.logger.Debug("provider resolved", "provider", p.Name(), "targets", len(targets))
			return Classify(targets), nil
		}
		r.logger.Debug("provider not applicable", "provider", p.Name())
	}
	return Classify(nil), nil
}
