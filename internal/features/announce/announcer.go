package announce

// Periodic Telegram announcement of the snapshot card
// Each tick builds a snapshot, renders and stores the card, then posts it with a caption
// An epoch rollover between ticks is announced with a text notice before the card

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"gpu-snapshot/internal/features/card"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/log"

	"go.uber.org/zap"
)

const (
	DefaultInterval = 30 * time.Minute
	cardFile        = "latest.png"
	topHolders      = 3
)

type Builder interface {
	Build(ctx context.Context, mint string) (*snapshot.Payload, error)
}

type CardStore interface {
	SaveCard(name string, encode func(io.Writer) error) (string, error)
}

type Config struct {
	Mint     string
	Interval time.Duration
	Cycle    epoch.RewardCycle
}

type Announcer struct {
	builder  Builder
	sender   Sender
	store    CardStore
	renderer card.Renderer
	cfg      Config
	now      func() time.Time

	last *snapshot.Payload
}

func New(b Builder, s Sender, store CardStore, cfg Config) *Announcer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Announcer{
		builder:  b,
		sender:   s,
		store:    store,
		renderer: card.Renderer{Cycle: cfg.Cycle},
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run announces immediately and then on every interval until ctx is done.
func (a *Announcer) Run(ctx context.Context) error {
	log.LogInfo("Starting announcer",
		zap.String("mint", a.cfg.Mint),
		zap.Duration("interval", a.cfg.Interval))

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := a.Tick(ctx); err != nil {
			log.LogError("Announcement failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.LogInfo("Announcer stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one announcement. A failed build skips the tick without sending anything.
func (a *Announcer) Tick(ctx context.Context) error {
	p, err := a.builder.Build(ctx, a.cfg.Mint)
	if err != nil {
		log.LogWarn("Skipping announcement, snapshot build failed", zap.Error(err))
		return nil
	}
	now := a.now()

	if a.last != nil && Rollover(a.last.EpochAt(now), p.EpochAt(now)) {
		if err := a.sender.SendText(rolloverNotice(p, now)); err != nil {
			log.LogError("Failed to send rollover notice", zap.Error(err))
		}
	}
	a.last = p

	caption := Caption(p, now, a.cfg.Cycle)
	path, err := a.store.SaveCard(cardFile, func(w io.Writer) error {
		return a.renderer.EncodePNG(w, p, now)
	})
	if err != nil {
		log.LogWarn("Failed to save card, sending text only", zap.Error(err))
		return a.sender.SendText(caption)
	}

	if err := a.sender.SendPhoto(path, caption); err != nil {
		log.LogError("Failed to send card", zap.Error(err))
		return a.sender.SendText(caption)
	}

	log.LogSuccess("Announcement sent",
		zap.Int64("gpus", p.TotalGPUs()),
		zap.Int("holders", len(p.Holders)),
		zap.String("card", path))
	return nil
}

// Rollover reports whether the countdown jumped up by more than a quarter epoch,
// which only happens when a new epoch started.
func Rollover(prev, cur epoch.State) bool {
	return cur.RemainingMs-prev.RemainingMs > cur.TotalMs/4
}

// Caption is the HTML text posted under the card.
func Caption(p *snapshot.Payload, now time.Time, cycle epoch.RewardCycle) string {
	ep := p.EpochAt(now)

	lines := []string{
		"<b>GPU Holder Snapshot</b>",
		"",
		fmt.Sprintf("GPUs working: <code>%d</code>", p.TotalGPUs()),
		fmt.Sprintf("GPU rewards: <code>%.3f SOL</code>", p.GPURewardsSOL),
		fmt.Sprintf("Epoch rewards: <code>%.3f SOL</code>", p.EpochRewardsSOL),
		fmt.Sprintf("Epoch ends in: <code>%s</code>", epoch.FormatHMS(ep.RemainingMs)),
		fmt.Sprintf("Next reward snapshot: <code>%s</code>", epoch.FormatMS(cycle.Remaining(now).Milliseconds())),
	}

	if len(p.Holders) > 0 {
		lines = append(lines, "", "Top holders:")
		medals := []string{"🥇", "🥈", "🥉"}
		for i, h := range p.Holders {
			if i == topHolders {
				break
			}
			lines = append(lines, fmt.Sprintf("%s <code>%s</code> %s (%d GPUs)",
				medals[i],
				html.EscapeString(card.ShortAddress(h.Address)),
				card.FormatAmount(h.Balance),
				h.GPUs))
		}
	}
	return strings.Join(lines, "\n")
}

func rolloverNotice(p *snapshot.Payload, now time.Time) string {
	return fmt.Sprintf("<b>New Solana epoch started</b>\nNext epoch in: <code>%s</code>",
		epoch.FormatHMS(p.EpochAt(now).RemainingMs))
}
