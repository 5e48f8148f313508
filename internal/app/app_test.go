package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0muji4/declnav/internal/config"
	"github.com/0muji4/declnav/internal/navigation"
)

const src = `package main

func helper() int { return 1 }

func main() {
	x := helper()
	_ = x
}
`

type navigatorFunc func(loc navigation.Location) error

func (f navigatorFunc) Navigate(_ context.Context, loc navigation.Location) error { return f(loc) }

type notices []navigation.Notice

func (n *notices) Notify(_ context.Context, notice navigation.Notice) { *n = append(*n, notice) }

type noSurface struct{}

func (noSurface) Show(context.Context, string, []navigation.Presentation, func(int), func()) error {
	return nil
}

func workspaceDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(src), 0o644))
	return root
}

func TestNew_SkipsUnavailableProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = []string{config.ProviderGopls, config.ProviderLocal, config.ProviderWorkspace, config.ProviderLLM}
	cfg.Gopls.Path = filepath.Join(t.TempDir(), "no-such-gopls")
	cfg.LLM.APIKey = ""

	a, err := New(context.Background(), workspaceDir(t), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{config.ProviderLocal, config.ProviderWorkspace}, a.Registry.Names())
	require.NoError(t, a.Wait(context.Background()))
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = []string{"ctags"}

	_, err := New(context.Background(), workspaceDir(t), cfg, nil)
	assert.ErrorContains(t, err, `unknown provider "ctags"`)
}

func TestSession_EndToEnd(t *testing.T) {
	root := workspaceDir(t)
	events := filepath.Join(t.TempDir(), "events.jsonl")

	cfg := config.Default()
	cfg.Providers = []string{config.ProviderLocal, config.ProviderWorkspace}
	cfg.Telemetry.File = events

	a, err := New(context.Background(), root, cfg, nil)
	require.NoError(t, err)

	var jumped []navigation.Location
	var shown notices
	session, err := a.NewSession(Sinks{
		Navigator: navigatorFunc(func(loc navigation.Location) error {
			jumped = append(jumped, loc)
			return nil
		}),
		Notifier: &shown,
		Surface:  noSurface{},
	})
	require.NoError(t, err)

	doc, err := a.Reader.Open("main.go")
	require.NoError(t, err)

	res, err := session.Run(context.Background(), doc, strings.Index(src, "helper()\n"))
	require.NoError(t, err)
	assert.Equal(t, navigation.StateNavigated, res.State)
	require.Len(t, jumped, 1)
	assert.Equal(t, navigation.Location{Path: filepath.Join(root, "main.go"), Line: 3, Column: 6}, jumped[0])
	assert.Empty(t, shown)

	res, err = session.Run(context.Background(), doc, strings.Index(src, "package"))
	require.NoError(t, err)
	assert.Equal(t, navigation.StateNothingFound, res.State)
	require.Len(t, shown, 1)
	assert.Equal(t, navigation.NoticeNothingFound, shown[0].Kind)

	require.NoError(t, a.Close())
	data, err := os.ReadFile(events)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"), "two feature-used events and one navigation")
	assert.Contains(t, string(data), `"provider":"local"`)
}
