package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/0muji4/declnav/internal/app"
	"github.com/0muji4/declnav/internal/navigation"
	"github.com/0muji4/declnav/internal/workspace"

	"github.com/mark3labs/mcp-go/mcp"
)

// DeclarationHandler は MCP リクエストを宣言ジャンプのセッションに変換する Adapter です。
type DeclarationHandler struct {
	app *app.App
}

func NewDeclarationHandler(a *app.App) *DeclarationHandler {
	return &DeclarationHandler{app: a}
}

// Goto handles the goto-declaration tool. Without a choice, ambiguous
// results come back as a numbered list; calling again with choice picks one.
func (h *DeclarationHandler) Goto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, offset, errResult := h.position(req)
	if errResult != nil {
		return errResult, nil
	}
	choice := req.GetInt("choice", 0)

	sinks := &requestSinks{choice: choice}
	session, err := h.app.NewSession(app.Sinks{Navigator: sinks, Notifier: sinks, Surface: sinks})
	if err != nil {
		return nil, err
	}

	res, err := session.Run(ctx, doc, offset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolution failed: %v", err)), nil
	}

	switch {
	case res.State == navigation.StateNavigated:
		return mcp.NewToolResultText(h.describe(res.Target)), nil
	case sinks.notice != nil:
		return mcp.NewToolResultText(sinks.notice.Message), nil
	case res.Cancelled && len(sinks.items) > 0 && choice != 0:
		return mcp.NewToolResultError(fmt.Sprintf("choice %d is out of range [1,%d]", choice, len(sinks.items))), nil
	case res.Cancelled && len(sinks.items) > 0:
		return mcp.NewToolResultText(candidateList(sinks.title, sinks.items) +
			"\nCall goto-declaration again with choice set to one of the numbers."), nil
	case res.Cancelled:
		return mcp.NewToolResultError("request cancelled"), nil
	}
	return mcp.NewToolResultText(navigation.MessageNothingFound), nil
}

// Peek handles the peek-declaration tool: it lists what goto-declaration
// would offer without navigating or recording anything.
func (h *DeclarationHandler) Peek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, offset, errResult := h.position(req)
	if errResult != nil {
		return errResult, nil
	}

	sinks := &requestSinks{}
	session, err := h.app.NewSession(app.Sinks{Navigator: sinks, Notifier: sinks, Surface: sinks})
	if err != nil {
		return nil, err
	}

	outcome, err := session.Preview(ctx, doc, offset)
	switch {
	case errors.Is(err, navigation.ErrAnalysisUnavailable):
		return mcp.NewToolResultText(navigation.MessageAnalysisNotReady), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("resolution failed: %v", err)), nil
	}

	targets := outcome.Targets()
	if len(targets) == 0 {
		return mcp.NewToolResultText(navigation.MessageNothingFound), nil
	}
	lines := make([]string, len(targets))
	for i, t := range targets {
		lines[i] = h.describe(t)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// position reads the file and caret of a request. The caret is either an
// offset or a 1-based line and column.
func (h *DeclarationHandler) position(req mcp.CallToolRequest) (*workspace.File, int, *mcp.CallToolResult) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return nil, 0, mcp.NewToolResultError("file_path is required")
	}
	doc, err := h.app.Reader.Open(path)
	if err != nil {
		return nil, 0, mcp.NewToolResultError(fmt.Sprintf("invalid file_path: %v", err))
	}

	if _, ok := req.GetArguments()["offset"]; ok {
		offset, err := req.RequireInt("offset")
		if err != nil {
			return nil, 0, mcp.NewToolResultError(err.Error())
		}
		return doc, offset, nil
	}

	line, err := req.RequireInt("line")
	if err != nil {
		return nil, 0, mcp.NewToolResultError("either offset or line and column are required")
	}
	column, err := req.RequireInt("column")
	if err != nil {
		return nil, 0, mcp.NewToolResultError("either offset or line and column are required")
	}
	offset, err := doc.Offset(line, column)
	if err != nil {
		return nil, 0, mcp.NewToolResultError(err.Error())
	}
	return doc, offset, nil
}

func (h *DeclarationHandler) describe(t navigation.Target) string {
	loc := t.Location()
	s := fmt.Sprintf("%s:%d:%d", h.app.Reader.Rel(loc.Path), loc.Line, loc.Column)
	if p := t.Presentation(); p.Text != "" {
		s += "\t" + p.String()
	}
	if origin, ok := t.Origin(); ok {
		s += fmt.Sprintf(" [%s]", origin)
	}
	return s
}

func candidateList(title string, items []navigation.Presentation) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}

// requestSinks collects what a session does for one tool call. There is no
// editor to jump in; the target is reported in the tool result instead.
type requestSinks struct {
	choice int // 1-based; 0 means list the candidates

	mu     sync.Mutex
	notice *navigation.Notice
	title  string
	items  []navigation.Presentation
}

func (s *requestSinks) Navigate(context.Context, navigation.Location) error { return nil }

func (s *requestSinks) Notify(_ context.Context, n navigation.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
}

func (s *requestSinks) Show(_ context.Context, title string, items []navigation.Presentation, choose func(int), dismiss func()) error {
	s.mu.Lock()
	s.title = title
	s.items = items
	s.mu.Unlock()

	if s.choice == 0 {
		dismiss()
		return nil
	}
	choose(s.choice - 1)
	return nil
}
