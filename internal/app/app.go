// Package app wires configuration into a provider registry and sessions.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/0muji4/declnav/internal/agent"
	"github.com/0muji4/declnav/internal/config"
	"github.com/0muji4/declnav/internal/lsp"
	"github.com/0muji4/declnav/internal/navigation"
	"github.com/0muji4/declnav/internal/semantic"
	"github.com/0muji4/declnav/internal/symbol"
	"github.com/0muji4/declnav/internal/telemetry"
	"github.com/0muji4/declnav/internal/workspace"
)

// progressDelay is how long a request runs before progress is reported.
const progressDelay = 300 * time.Millisecond

// App holds the process-wide state: the registry is built once and shared
// by every request.
type App struct {
	Config    *config.Config
	Reader    *workspace.FSReader
	Registry  *navigation.Registry
	Telemetry navigation.Telemetry

	logger   *slog.Logger
	resolver *navigation.Resolver
	waiters  []func(ctx context.Context) error
	closers  []io.Closer
}

// New builds the providers listed in cfg for the workspace at root. Providers
// that cannot start (gopls missing, no API key) are left out with a log line.
func New(ctx context.Context, root string, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("app: root %s: %w", root, err)
	}

	a := &App{
		Config: cfg,
		Reader: workspace.NewFSReader(absRoot),
		logger: logger,
	}

	var providers []navigation.Provider
	for _, name := range cfg.Providers {
		p, err := a.provider(ctx, name)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if p == nil {
			continue
		}
		providers = append(providers, p)
	}

	a.Registry, err = navigation.NewRegistry(providers...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.resolver = navigation.NewResolver(a.Registry, logger)

	if cfg.Telemetry.File != "" {
		rec, err := telemetry.OpenFile(cfg.Telemetry.File)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Telemetry = rec
		a.closers = append(a.closers, rec)
	} else {
		a.Telemetry = telemetry.NewLogRecorder(logger)
	}

	logger.Info("providers ready", "root", absRoot, "providers", a.Registry.Names())
	return a, nil
}

func (a *App) provider(ctx context.Context, name string) (navigation.Provider, error) {
	root := a.Reader.Root()
	switch name {
	case config.ProviderTypes:
		index := semantic.NewIndex(root, a.logger)
		index.Start(ctx)
		a.waiters = append(a.waiters, func(ctx context.Context) error {
			// A failed load leaves the provider unavailable; that is not a wait error.
			_ = index.Wait(ctx)
			return ctx.Err()
		})
		return semantic.NewProvider(index, root), nil

	case config.ProviderGopls:
		client, err := lsp.NewClient(root, a.Config.Gopls.Path, a.logger)
		if err != nil {
			a.logger.Warn("gopls provider disabled", "err", err)
			return nil, nil
		}
		a.closers = append(a.closers, client)
		a.waiters = append(a.waiters, func(ctx context.Context) error {
			select {
			case <-client.Ready():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		return lsp.NewDefinitionProvider(client, root), nil

	case config.ProviderLocal:
		return symbol.NewLocalProvider(root), nil

	case config.ProviderWorkspace:
		return symbol.NewWorkspaceProvider(root, symbol.NewASTResolver(root)), nil

	case config.ProviderLLM:
		if a.Config.LLM.APIKey == "" {
			a.logger.Info("llm provider disabled: GEMINI_API_KEY is not set")
			return nil, nil
		}
		ag, err := agent.New(ctx, a.Config.LLM.APIKey, a.Reader, symbol.NewASTResolver(root), agent.Options{
			Model:         a.Config.LLM.Model,
			MaxIterations: a.Config.LLM.MaxIterations,
			SystemPrompt:  a.Config.LLM.SystemPrompt,
			Logger:        a.logger,
		})
		if err != nil {
			return nil, err
		}
		return ag, nil
	}
	return nil, fmt.Errorf("app: unknown provider %q", name)
}

// Resolver returns the shared provider chain.
func (a *App) Resolver() *navigation.Resolver { return a.resolver }

// Wait blocks until every background analysis has started up.
func (a *App) Wait(ctx context.Context) error {
	for _, w := range a.waiters {
		if err := w(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Sinks are the host-specific collaborators of a session.
type Sinks struct {
	Navigator navigation.Navigator
	Notifier  navigation.Notifier
	Surface   navigation.Surface
	// Report, if set, is told when a request is slow.
	Report func(title string)
}

// NewSession returns a session over the shared resolver.
func (a *App) NewSession(s Sinks) (*navigation.Session, error) {
	return navigation.NewSession(navigation.SessionConfig{
		Resolver:  a.resolver,
		Navigator: s.Navigator,
		Notifier:  s.Notifier,
		Surface:   s.Surface,
		Telemetry: a.Telemetry,
		Progress:  navigation.BackgroundProgress{Delay: progressDelay, Report: s.Report},
		Logger:    a.logger,
	})
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
