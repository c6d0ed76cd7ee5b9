// ironlog-mcp serves IronLog training data over MCP stdio, for use as a
// local MCP server entry in an agent's configuration.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/ironlog/internal/config"
	"github.com/claude/ironlog/internal/mcp"
	"github.com/claude/ironlog/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.Int("user", 1, "user id to scope all queries to")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := mcp.New(db, Version, log)
	log.Info("IronLog MCP server starting", "user_id", *userID)

	err = mcpserver.ServeStdio(srv,
		mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return mcp.WithUserID(ctx, *userID)
		}),
	)
	if err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
