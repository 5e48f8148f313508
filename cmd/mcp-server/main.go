package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/0muji4/declnav/internal/app"
	"github.com/0muji4/declnav/internal/config"
	"github.com/0muji4/declnav/internal/server"
)

func main() {
	// --- 環境変数の読み込み ---
	cfg, err := config.Load(os.Getenv("DECLNAV_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// stdout は MCP のプロトコルに使うので、ログは stderr へ
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	root := os.Getenv("DECLNAV_ROOT")
	if root == "" {
		root = "."
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// --- DI: プロバイダ一式はプロセスで一度だけ組み立てる ---
	a, err := app.New(ctx, root, cfg, logger)
	if err != nil {
		logger.Error("failed to build providers", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := server.NewDeclarationHandler(a)
	s := server.New(handler)

	// --- Framework: MCP stdio サーバーの起動 ---
	logger.Info("declnav MCP server starting", "root", a.Reader.Root(), "version", server.Version)
	if err := mcpserver.ServeStdio(s); err != nil {
		logger.Error("server error", "err", err)
	}
}
