package navigation

import (
	"context"
	"time"
)

// BackgroundProgress runs work on its own goroutine so the caller stays
// responsive, and returns as soon as ctx is cancelled. The work itself is
// told through its context and is expected to stop on its own; its late
// result is dropped.
type BackgroundProgress struct {
	// Delay before Report is called. Quick requests never report.
	Delay time.Duration
	// Report, if set, is called with the title once Delay has passed.
	Report func(title string)
	// Finish, if set, is called after Report when the work ends.
	Finish func()
}

func (p BackgroundProgress) Run(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- fn(ctx) }()

	var delay <-chan time.Time
	if p.Report != nil {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		delay = t.C
	}

	reported := false
	defer func() {
		if reported && p.Finish != nil {
			p.Finish()
		}
	}()

	for {
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-delay:
			reported = true
			p.Report(title)
			delay = nil
		}
	}
}
