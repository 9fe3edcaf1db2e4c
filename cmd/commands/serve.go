package commands

// Command to run the HTTP server
// Serves the snapshot API, leaderboard, card and dashboard until SIGINT/SIGTERM

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with the snapshot API and dashboard",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		log.LogWarn("Snapshot endpoints will fail until the API key is set", zap.Error(err))
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.New(cfg, builder).Run(ctx); err != nil {
		log.LogError("HTTP server failed", zap.Error(err))
		return err
	}
	log.LogSuccess("HTTP server stopped")
	return nil
}
