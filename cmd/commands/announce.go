package commands

// Command to run the Telegram announcer
// Posts the snapshot card to one chat on a fixed interval until SIGINT/SIGTERM

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gpu-snapshot/internal/features/announce"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/infra/fs"

	"github.com/spf13/cobra"
)

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the snapshot card to Telegram on an interval",
	RunE:  runAnnounce,
}

func runAnnounce(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	sender, err := announce.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := announce.New(builder, sender, fs.NewStore(cfg.App.DataDir), announce.Config{
		Mint:     cfg.Token.Mint,
		Interval: cfg.AnnounceInterval(),
		Cycle:    epoch.RewardCycle{Period: cfg.RewardCycle()},
	})
	return a.Run(ctx)
}
