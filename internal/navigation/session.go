package navigation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// User-facing texts.
const (
	TitleResolving          = "Resolving reference…"
	TitleChooseDeclaration  = "Choose Declaration"
	MessageNothingFound     = "Cannot find declaration to go to"
	MessageAnalysisNotReady = "Navigation is not available here during index update"

	actionGotoDeclarationOnly = "goto-declaration-only"
)

// State is a step of the session state machine.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateNavigated
	StateDisambiguating
	StateNothingFound
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateNavigated:
		return "navigated"
	case StateDisambiguating:
		return "disambiguating"
	case StateNothingFound:
		return "nothing-found"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Result describes how a request ended.
type Result struct {
	State State
	// Target is set when State is StateNavigated.
	Target Target
	// Cancelled is set when the request was interrupted or the chooser was
	// closed; State is then StateIdle.
	Cancelled bool
}

// SessionConfig holds the collaborators of a Session.
type SessionConfig struct {
	Resolver  *Resolver
	Navigator Navigator
	Notifier  Notifier
	Surface   Surface

	// Optional.
	Telemetry Telemetry
	Progress  Progress
	Logger    *slog.Logger
	// Observe, if set, sees every state transition.
	Observe func(from, to State)
}

// Session drives one go-to-declaration request from cursor to jump. It keeps
// no per-request state between calls to Run, so it may be shared or
// recreated freely.
type Session struct {
	resolver  *Resolver
	navigator Navigator
	notifier  Notifier
	chooser   *Coordinator
	telemetry Telemetry
	progress  Progress
	logger    *slog.Logger
	observe   func(from, to State)
	newID     func() string
	now       func() time.Time
}

// NewSession validates cfg and returns a Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	switch {
	case cfg.Resolver == nil:
		return nil, errors.New("navigation: session needs a resolver")
	case cfg.Navigator == nil:
		return nil, errors.New("navigation: session needs a navigator")
	case cfg.Notifier == nil:
		return nil, errors.New("navigation: session needs a notifier")
	case cfg.Surface == nil:
		return nil, errors.New("navigation: session needs a chooser surface")
	}

	s := &Session{
		resolver:  cfg.Resolver,
		navigator: cfg.Navigator,
		notifier:  cfg.Notifier,
		chooser:   NewCoordinator(cfg.Surface, TitleChooseDeclaration),
		telemetry: cfg.Telemetry,
		progress:  cfg.Progress,
		logger:    cfg.Logger,
		observe:   cfg.Observe,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	if s.progress == nil {
		s.progress = BackgroundProgress{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Run resolves the symbol at offset in doc and acts on the outcome: it
// navigates, asks the user to choose, or tells the user why it cannot.
//
// Cancellation of ctx ends the request quietly with StateIdle. The returned
// error is non-nil only for provider or chooser faults.
func (s *Session) Run(ctx context.Context, doc Document, offset int) (Result, error) {
	ec := EventContext{
		RequestID: s.newID(),
		Action:    actionGotoDeclarationOnly,
		Path:      doc.Path(),
		Offset:    offset,
		Started:   s.now(),
	}
	logger := s.logger.With("request", ec.RequestID, "path", ec.Path, "offset", offset)
	s.record(ctx, logger, Event{Name: EventFeatureUsed, Context: ec})

	if vs, ok := doc.(virtualSpacer); ok && vs.InVirtualSpace(offset) {
		logger.Debug("caret in virtual space")
		return Result{State: StateIdle}, nil
	}

	s.transition(StateIdle, StateResolving)
	outcome, err := s.resolve(ctx, doc, offset)
	switch {
	case ctx.Err() != nil:
		logger.Debug("resolution cancelled")
		return s.finish(StateResolving, Result{State: StateIdle, Cancelled: true}), nil
	case errors.Is(err, ErrAnalysisUnavailable):
		logger.Info("analysis not ready", "err", err)
		s.notifier.Notify(ctx, Notice{Kind: NoticeAnalysisNotReady, Message: MessageAnalysisNotReady})
		return s.finish(StateResolving, Result{State: StateDegraded}), nil
	case err != nil:
		s.transition(StateResolving, StateIdle)
		return Result{State: StateIdle}, err
	}

	switch outcome.Kind() {
	case OutcomeSingle:
		t, _ := outcome.Single()
		s.navigate(ctx, logger, t, ec)
		return s.finish(StateResolving, Result{State: StateNavigated, Target: t}), nil

	case OutcomeMultiple:
		targets, _ := outcome.Multiple()
		s.transition(StateResolving, StateDisambiguating)
		sel, err := s.chooser.Present(ctx, targets)
		if err != nil {
			s.transition(StateDisambiguating, StateIdle)
			return Result{State: StateIdle}, err
		}
		t, ok := sel.Wait(ctx)
		if !ok || ctx.Err() != nil {
			logger.Debug("chooser closed without a pick")
			return s.finish(StateDisambiguating, Result{State: StateIdle, Cancelled: true}), nil
		}
		s.navigate(ctx, logger, t, ec)
		return s.finish(StateDisambiguating, Result{State: StateNavigated, Target: t}), nil

	default:
		logger.Info("no declaration found")
		s.notifier.Notify(ctx, Notice{Kind: NoticeNothingFound, Message: MessageNothingFound})
		return s.finish(StateResolving, Result{State: StateNothingFound}), nil
	}
}

// Preview resolves like Run but has no side effects: no jump, notice,
// chooser or telemetry.
func (s *Session) Preview(ctx context.Context, doc Document, offset int) (Outcome, error) {
	if vs, ok := doc.(virtualSpacer); ok && vs.InVirtualSpace(offset) {
		return Classify(nil), nil
	}
	outcome, err := s.resolve(ctx, doc, offset)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{}, ctxErr
	}
	return outcome, err
}

func (s *Session) resolve(ctx context.Context, doc Document, offset int) (Outcome, error) {
	var outcome Outcome
	err := s.progress.Run(ctx, TitleResolving, func(ctx context.Context) error {
		var err error
		outcome, err = s.resolver.Resolve(ctx, doc, offset)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// navigate jumps to t and only then attributes the jump to its provider.
func (s *Session) navigate(ctx context.Context, logger *slog.Logger, t Target, ec EventContext) {
	if err := s.navigator.Navigate(ctx, t.Location()); err != nil {
		logger.Warn("navigation failed", "location", t.Location().String(), "err", err)
		return
	}
	if provider, ok := t.Origin(); ok {
		s.record(ctx, logger, Event{Name: EventNavigated, Context: ec, Provider: provider})
	}
}

func (s *Session) record(ctx context.Context, logger *slog.Logger, e Event) {
	if s.telemetry == nil {
		return
	}
	if err := s.telemetry.Record(ctx, e); err != nil {
		logger.Warn("telemetry failed", "event", e.Name, "err", err)
	}
}

// finish reports the terminal state and the return to idle.
func (s *Session) finish(from State, r Result) Result {
	if r.State != StateIdle {
		s.transition(from, r.State)
		s.transition(r.State, StateIdle)
	} else {
		s.transition(from, StateIdle)
	}
	return r
}

func (s *Session) transition(from, to State) {
	if s.observe != nil {
		s.observe(from, to)
	}
}
