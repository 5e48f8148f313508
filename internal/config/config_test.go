package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "declnav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"types", "gopls", "local", "workspace", "llm"}, c.Providers)
	assert.Equal(t, "gopls", c.Gopls.Path)
	assert.Equal(t, slog.LevelInfo, c.LogLevel())
	assert.Empty(t, c.LLM.APIKey)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	path := writeConfig(t, `
providers: [local, workspace]
gopls:
  path: /opt/gopls
llm:
  model: gemini-2.5-pro
telemetry:
  file: /tmp/events.jsonl
log:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "workspace"}, c.Providers)
	assert.Equal(t, "/opt/gopls", c.Gopls.Path)
	assert.Equal(t, "gemini-2.5-pro", c.LLM.Model)
	assert.Equal(t, 6, c.LLM.MaxIterations, "unset keys keep their defaults")
	assert.Equal(t, "/tmp/events.jsonl", c.Telemetry.File)
	assert.Equal(t, slog.LevelDebug, c.LogLevel())
	assert.Equal(t, "secret", c.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown provider", "providers: [types, ctags]\n", `unknown provider "ctags"`},
		{"duplicate provider", "providers: [local, local]\n", "listed twice"},
		{"iterations", "llm:\n  max_iterations: 0\n", "max_iterations"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"yaml", "providers: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")
}
