package navigation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_PickIsDeliveredOnce(t *testing.T) {
	surface := &scriptedSurface{hold: true}
	c := NewCoordinator(surface, "Pick")

	sel, err := c.Present(context.Background(), []Target{target("a"), target("b"), target("c")})
	require.NoError(t, err)

	_, ok := sel.Result()
	assert.False(t, ok, "nothing picked yet")

	surface.choose(2)
	surface.choose(0)
	surface.dismiss()

	got, ok := sel.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "c", got.Presentation().Text)
	assert.Equal(t, "Pick", surface.title)
}

func TestCoordinator_DismissIsNotAnError(t *testing.T) {
	surface := &scriptedSurface{pick: -1}
	sel, err := NewCoordinator(surface, "Pick").Present(context.Background(), []Target{target("a"), target("b")})
	require.NoError(t, err)

	select {
	case <-sel.Done():
	case <-time.After(time.Second):
		t.Fatal("selection not completed")
	}
	_, ok := sel.Result()
	assert.False(t, ok)
}

func TestCoordinator_OutOfRangePick(t *testing.T) {
	surface := &scriptedSurface{pick: 7}
	sel, err := NewCoordinator(surface, "Pick").Present(context.Background(), []Target{target("a"), target("b")})
	require.NoError(t, err)
	_, ok := sel.Wait(context.Background())
	assert.False(t, ok)
}

func TestCoordinator_NoDeliveryAfterCancel(t *testing.T) {
	surface := &scriptedSurface{hold: true}
	ctx, cancel := context.WithCancel(context.Background())
	sel, err := NewCoordinator(surface, "Pick").Present(ctx, []Target{target("a"), target("b")})
	require.NoError(t, err)

	cancel()
	select {
	case <-sel.Done():
	case <-time.After(time.Second):
		t.Fatal("cancellation did not complete the selection")
	}

	surface.choose(0)
	_, ok := sel.Result()
	assert.False(t, ok)
}

func TestCoordinator_Empty(t *testing.T) {
	_, err := NewCoordinator(&scriptedSurface{}, "Pick").Present(context.Background(), nil)
	assert.Error(t, err)
}

func TestBackgroundProgress_Reports(t *testing.T) {
	reported := make(chan string, 1)
	finished := make(chan struct{}, 1)
	p := BackgroundProgress{
		Delay:  time.Millisecond,
		Report: func(title string) { reported <- title },
		Finish: func() { finished <- struct{}{} },
	}

	err := p.Run(context.Background(), "Working", func(ctx context.Context) error {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Working", <-reported)
	assert.Len(t, finished, 1)
}

func TestBackgroundProgress_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	err := BackgroundProgress{}.Run(ctx, "Working", func(context.Context) error {
		close(started)
		select {} // ignores cancellation entirely
	})
	assert.ErrorIs(t, err, context.Canceled)
}
