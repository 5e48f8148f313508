package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0muji4/declnav/internal/app"
	"github.com/0muji4/declnav/internal/config"
	"github.com/0muji4/declnav/internal/navigation"
)

const mainSrc = "package main\n\nfunc main() {\n\tx.Run()\n}\n"

func newHandler(t *testing.T) *DeclarationHandler {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go": mainSrc,
		"a/a.go":  "package a\n\nfunc Run() {}\n",
		"b/b.go":  "package b\n\nfunc Run() {}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.Providers = []string{config.ProviderLocal, config.ProviderWorkspace}
	a, err := app.New(context.Background(), root, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return NewDeclarationHandler(a)
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestGoto(t *testing.T) {
	h := newHandler(t)
	ctx := context.Background()
	runOffset := strings.Index(mainSrc, "Run")

	t.Run("single by line and column", func(t *testing.T) {
		res, err := h.Goto(ctx, request(map[string]any{"file_path": "main.go", "line": 3, "column": 6}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "main.go:3:6\tfunc main  (main.go:3) [local]", resultText(t, res))
	})

	t.Run("ambiguous lists candidates", func(t *testing.T) {
		res, err := h.Goto(ctx, request(map[string]any{"file_path": "main.go", "offset": runOffset}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		text := resultText(t, res)
		assert.Contains(t, text, navigation.TitleChooseDeclaration+":\n")
		assert.Contains(t, text, "1. func Run  (a/a.go:3)\n")
		assert.Contains(t, text, "2. func Run  (b/b.go:3)\n")
	})

	t.Run("choice picks a candidate", func(t *testing.T) {
		res, err := h.Goto(ctx, request(map[string]any{"file_path": "main.go", "offset": runOffset, "choice": 2}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, res), "b/b.go:3:6\t"))
	})

	t.Run("choice out of range", func(t *testing.T) {
		res, err := h.Goto(ctx, request(map[string]any{"file_path": "main.go", "offset": runOffset, "choice": 5}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "out of range [1,2]")
	})

	t.Run("nothing found", func(t *testing.T) {
		res, err := h.Goto(ctx, request(map[string]any{"file_path": "main.go", "offset": 0}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, navigation.MessageNothingFound, resultText(t, res))
	})
}

func TestGoto_BadRequests(t *testing.T) {
	h := newHandler(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no file", map[string]any{"offset": 0}, "file_path is required"},
		{"outside root", map[string]any{"file_path": "../x.go", "offset": 0}, "outside project root"},
		{"no position", map[string]any{"file_path": "main.go"}, "either offset or line and column"},
		{"bad line", map[string]any{"file_path": "main.go", "line": 99, "column": 1}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Goto(ctx, request(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestPeek(t *testing.T) {
	h := newHandler(t)

	res, err := h.Peek(context.Background(), request(map[string]any{
		"file_path": "main.go",
		"offset":    strings.Index(mainSrc, "Run"),
	}))
	require.NoError(t, err)
	lines := strings.Split(resultText(t, res), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "a/a.go:3:6\t"))
	assert.True(t, strings.HasSuffix(lines[1], "[workspace]"))
}

func TestServer_InProcess(t *testing.T) {
	s := New(newHandler(t))

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"goto-declaration", "peek-declaration"}, names)

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = "goto-declaration"
	callReq.Params.Arguments = map[string]any{"file_path": "main.go", "line": 3, "column": 6}
	res, err := c.CallTool(ctx, callReq)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "main.go:3:6")
}
