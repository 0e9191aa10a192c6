package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/fleet-compliance/internal/adapters/mcp"
	"github.com/kirillkom/fleet-compliance/internal/bootstrap"
	"github.com/kirillkom/fleet-compliance/internal/config"
	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// stdout carries the MCP protocol, so logs go to stderr.
	slog.SetDefault(logging.NewWriterLogger(os.Stderr, "mcp", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, nil)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	locale, err := domain.ParseLocale(cfg.DefaultLocale)
	if err != nil {
		locale = domain.LocaleArabic
	}
	s := mcpadapter.NewServer(mcpadapter.NewHandlers(app.Notifications, locale))
	if err := server.ServeStdio(s); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
