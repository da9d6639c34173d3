package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/flowlens/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Everything is configured from the environment (see internal/config).
	// An invalid APP_RULES_FILE stops startup here.
	server, err := mcpsrv.NewServer()
	if err != nil {
		slog.Error("failed to create MCP server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting flowlens MCP server on stdio")
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("server stopped")
}
