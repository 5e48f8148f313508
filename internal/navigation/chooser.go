package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Surface displays a list of candidates to the user.
//
// Show must not block on the user. It calls choose at most once with the
// index of the picked item, or dismiss when the list is closed without a
// pick. Calling both, or either more than once, is tolerated and ignored.
type Surface interface {
	Show(ctx context.Context, title string, items []Presentation, choose func(index int), dismiss func()) error
}

// Selection is the pending answer of a chooser.
type Selection struct {
	once   sync.Once
	done   chan struct{}
	target Target
	ok     bool
}

func newSelection() *Selection {
	return &Selection{done: make(chan struct{})}
}

func (s *Selection) resolve(t Target, ok bool) {
	s.once.Do(func() {
		s.target = t
		s.ok = ok
		close(s.done)
	})
}

// Done is closed once a pick, a dismissal or a cancellation happened.
func (s *Selection) Done() <-chan struct{} { return s.done }

// Result returns the picked target. ok is false until Done is closed, and
// stays false when nothing was picked.
func (s *Selection) Result() (Target, bool) {
	select {
	case <-s.done:
		return s.target, s.ok
	default:
		return Target{}, false
	}
}

// Wait blocks until the selection completes or ctx is done.
func (s *Selection) Wait(ctx context.Context) (Target, bool) {
	select {
	case <-s.done:
		return s.target, s.ok
	case <-ctx.Done():
		s.resolve(Target{}, false)
		return s.Result()
	}
}

// Coordinator asks the user to pick one of several targets.
type Coordinator struct {
	surface Surface
	title   string
}

// NewCoordinator returns a Coordinator that shows lists on surface under
// title.
func NewCoordinator(surface Surface, title string) *Coordinator {
	return &Coordinator{surface: surface, title: title}
}

// Present shows targets in their given order and returns the pending pick.
// After ctx is done the Selection never reports a pick.
func (c *Coordinator) Present(ctx context.Context, targets []Target) (*Selection, error) {
	if len(targets) == 0 {
		return nil, errors.New("navigation: nothing to choose from")
	}
	candidates := append([]Target(nil), targets...)
	items := make([]Presentation, len(candidates))
	for i, t := range candidates {
		items[i] = t.Presentation()
	}

	sel := newSelection()
	choose := func(index int) {
		if ctx.Err() != nil || index < 0 || index >= len(candidates) {
			sel.resolve(Target{}, false)
			return
		}
		sel.resolve(candidates[index], true)
	}
	dismiss := func() { sel.resolve(Target{}, false) }

	go func() {
		select {
		case <-ctx.Done():
			sel.resolve(Target{}, false)
		case <-sel.done:
		}
	}()

	if err := c.surface.Show(ctx, c.title, items, choose, dismiss); err != nil {
		sel.resolve(Target{}, false)
		return nil, fmt.Errorf("navigation: show chooser: %w", err)
	}
	return sel, nil
}
