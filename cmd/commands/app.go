package commands

import (
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/config"
)

// newBuilder wires the RPC client, holder strategies and epoch estimator into a snapshot builder.
func newBuilder(c *config.Config) (*snapshot.Builder, error) {
	client := helius.NewClient(c.RPCEndpoint(),
		helius.WithTimeout(c.RequestTimeout()),
		helius.WithRetry(c.RetryOptions()),
		helius.WithRateLimit(c.Helius.RateLimit, c.Helius.Burst),
		helius.WithMaxResponseSize(c.Helius.MaxResponseSize),
	)

	strategies, err := holders.NewStrategies(c.Holders.Strategies, client, holders.Options{
		BatchSize:          c.Holders.BatchSize,
		HydrateConcurrency: c.Holders.HydrateConcurrency,
		OwnerCacheSize:     c.Holders.OwnerCacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create holder strategies: %w", err)
	}

	return snapshot.NewBuilder(
		holders.NewAggregator(strategies, c.Token.ExcludedWallets, c.Token.UnitSize),
		client,
		epoch.NewEstimator(client, c.Epoch.DefaultSlotMs),
		snapshot.Config{
			RewardsWallet:      c.Token.RewardsWallet,
			EpochRewardsWallet: c.Token.EpochRewardsWallet,
			Concurrent:         c.Snapshot.Concurrent,
		},
	), nil
}
