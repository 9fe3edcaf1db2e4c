package snapshot

// Snapshot assembly
// Four independent reads: holders, two wallet balances, epoch countdown
// Holder failures are absorbed by the holder source; any other failure fails the build

import (
	"context"
	"fmt"
	"time"

	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/infra/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type HolderSource interface {
	Holders(ctx context.Context, mint string) []holders.Holder
}

type BalanceSource interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

type EpochSource interface {
	Estimate(ctx context.Context) (epoch.State, error)
}

type Config struct {
	RewardsWallet      string
	EpochRewardsWallet string
	// Concurrent runs the four reads in parallel; false runs them one after another.
	Concurrent bool
}

type Builder struct {
	holders  HolderSource
	balances BalanceSource
	epoch    EpochSource
	cfg      Config
	now      func() time.Time
}

func NewBuilder(h HolderSource, b BalanceSource, e EpochSource, cfg Config) *Builder {
	return &Builder{holders: h, balances: b, epoch: e, cfg: cfg, now: time.Now}
}

// Build produces a complete payload or an error; there is no partial result.
func (b *Builder) Build(ctx context.Context, mint string) (*Payload, error) {
	start := b.now()

	var p *Payload
	var err error
	if b.cfg.Concurrent {
		p, err = b.buildConcurrent(ctx, mint)
	} else {
		p, err = b.buildSequential(ctx, mint)
	}
	if err != nil {
		metrics.SnapshotBuilds.WithLabelValues("error").Inc()
		log.LogError("Snapshot build failed", zap.String("mint", mint), zap.Error(err))
		return nil, err
	}

	p.UpdatedAt = b.now().UTC()
	metrics.SnapshotBuilds.WithLabelValues("ok").Inc()
	log.LogInfo("Snapshot built",
		zap.String("mint", mint),
		zap.Int("holders", len(p.Holders)),
		zap.Int64("gpus", p.TotalGPUs()),
		zap.Duration("duration", b.now().Sub(start)))
	return p, nil
}

func (b *Builder) buildConcurrent(ctx context.Context, mint string) (*Payload, error) {
	var p Payload

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Holders = b.holders.Holders(gctx, mint)
		return nil
	})
	g.Go(func() error {
		sol, err := b.balanceSOL(gctx, b.cfg.RewardsWallet)
		p.GPURewardsSOL = sol
		return err
	})
	g.Go(func() error {
		sol, err := b.balanceSOL(gctx, b.cfg.EpochRewardsWallet)
		p.EpochRewardsSOL = sol
		return err
	})
	g.Go(func() error {
		state, err := b.epoch.Estimate(gctx)
		if err != nil {
			return fmt.Errorf("epoch countdown: %w", err)
		}
		p.Epoch = state
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.Holders == nil {
		p.Holders = []holders.Holder{}
	}
	return &p, nil
}

func (b *Builder) buildSequential(ctx context.Context, mint string) (*Payload, error) {
	var p Payload
	var err error

	p.Holders = b.holders.Holders(ctx, mint)
	if p.Holders == nil {
		p.Holders = []holders.Holder{}
	}
	if p.GPURewardsSOL, err = b.balanceSOL(ctx, b.cfg.RewardsWallet); err != nil {
		return nil, err
	}
	if p.EpochRewardsSOL, err = b.balanceSOL(ctx, b.cfg.EpochRewardsWallet); err != nil {
		return nil, err
	}
	if p.Epoch, err = b.epoch.Estimate(ctx); err != nil {
		return nil, fmt.Errorf("epoch countdown: %w", err)
	}
	return &p, nil
}

func (b *Builder) balanceSOL(ctx context.Context, wallet string) (float64, error) {
	lamports, err := b.balances.GetBalance(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", wallet, err)
	}
	return LamportsToSOL(lamports), nil
}
