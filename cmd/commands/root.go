package commands

// Root command for Cobra CLI
// Config flags are persistent so every subcommand accepts them
// Configuration and logging are initialised once before any subcommand runs

import (
	"fmt"

	"gpu-snapshot/internal/infra/config"
	"gpu-snapshot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gpu-snapshot",
	Short: "GPU holder snapshot service - token holders, rewards and epoch countdown",
	Long: `gpu-snapshot aggregates token holders of a Solana SPL mint into GPU units,
reads the reward wallet balances and estimates the epoch countdown. It serves the
snapshot over HTTP with a dashboard and can post a summary card to Telegram.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	defer log.Sync()
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(announceCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.Setup(log.Options{Dir: loaded.App.LogDir, Level: loaded.App.LogLevel}); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	cfg = loaded

	log.LogDebug("Configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("mint", cfg.Token.Mint),
		zap.Strings("strategies", cfg.Holders.Strategies))
	return nil
}
