package server

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// New は MCP サーバーを生成し、ツールを登録して返します。
// ビジネスロジックは handler に委譲し、ここではプロトコル変換のみ行います。
func New(handler *DeclarationHandler) *server.MCPServer {
	s := server.NewMCPServer(
		"declnav",
		Version,
		server.WithToolCapabilities(false),
	)

	position := []mcp.ToolOption{
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Go source file, absolute or relative to the workspace root"),
		),
		mcp.WithNumber("line",
			mcp.Description("1-based line of the caret"),
		),
		mcp.WithNumber("column",
			mcp.Description("1-based byte column of the caret"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Byte offset of the caret; replaces line and column"),
		),
	}

	gotoTool := mcp.NewTool("goto-declaration", append([]mcp.ToolOption{
		mcp.WithDescription("Finds the declaration of the Go identifier at a position. When several declarations match, returns a numbered list; call again with choice to pick one."),
		mcp.WithNumber("choice",
			mcp.Description("1-based number of the declaration to pick from a previous list"),
		),
	}, position...)...)

	peekTool := mcp.NewTool("peek-declaration", append([]mcp.ToolOption{
		mcp.WithDescription("Lists the declarations goto-declaration would offer for a position, without recording a navigation."),
	}, position...)...)

	s.AddTool(gotoTool, handler.Goto)
	s.AddTool(peekTool, handler.Peek)

	return s
}
