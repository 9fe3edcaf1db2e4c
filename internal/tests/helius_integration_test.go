//go:build integration

package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"gpu-snapshot/internal/clients_api/helius"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *helius.Client {
	t.Helper()
	key := os.Getenv("HELIUS_API_KEY")
	if key == "" {
		t.Skip("HELIUS_API_KEY not set")
	}
	cfg := &config.Config{Helius: config.HeliusConfig{APIKey: key, BaseURL: config.DefaultBaseURL}}
	return helius.NewClient(cfg.RPCEndpoint())
}

func TestIntegration_Helius_GetBalance(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := c.GetBalance(ctx, config.DefaultRewardsWallet)
	require.NoError(t, err)
}

func TestIntegration_Helius_EpochCountdown(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := epoch.NewEstimator(c, epoch.DefaultSlotMs).Estimate(ctx)
	require.NoError(t, err)
	assert.Greater(t, state.TotalMs, int64(0))
	assert.LessOrEqual(t, state.RemainingMs, state.TotalMs)
}

func TestIntegration_Helius_LargestAccountsHolders(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	strategies, err := holders.NewStrategies([]string{holders.StrategyLargestAccounts}, c, holders.Options{})
	require.NoError(t, err)

	agg := holders.NewAggregator(strategies, []string{config.PumpFunAMMWallet}, config.DefaultUnitSize)
	hs := agg.Holders(ctx, config.DefaultMint)
	require.NotEmpty(t, hs)
	for _, h := range hs {
		assert.NotEqual(t, config.PumpFunAMMWallet, h.Address)
	}
}

func TestIntegration_Snapshot_Build(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	strategies, err := holders.NewStrategies(config.DefaultStrategies, c, holders.Options{})
	require.NoError(t, err)

	b := snapshot.NewBuilder(
		holders.NewAggregator(strategies, []string{config.PumpFunAMMWallet}, config.DefaultUnitSize),
		c,
		epoch.NewEstimator(c, epoch.DefaultSlotMs),
		snapshot.Config{
			RewardsWallet:      config.DefaultRewardsWallet,
			EpochRewardsWallet: config.DefaultEpochRewardsWallet,
			Concurrent:         true,
		},
	)
	p, err := b.Build(ctx, config.DefaultMint)
	require.NoError(t, err)
	assert.NotNil(t, p.Holders)
}
