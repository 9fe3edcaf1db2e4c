package holders

import (
	"context"
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"

	"golang.org/x/sync/errgroup"
)

// hydrate resolves token account keys to parsed token account info via
// batched getMultipleAccounts. Keys without a parsed token account are absent
// from the result.
func hydrate(ctx context.Context, rpc RPC, keys []string, batchSize, concurrency int) (map[string]*helius.TokenAccountInfo, error) {
	batches := chunk(keys, batchSize)
	results := make([][]*helius.Account, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, batch := range batches {
		g.Go(func() error {
			accounts, err := rpc.GetMultipleAccounts(gctx, batch, helius.MultipleAccountsConfig{
				Encoding:   helius.EncodingJSONParsed,
				Commitment: helius.CommitmentConfirmed,
			})
			if err != nil {
				return fmt.Errorf("hydrate batch %d/%d: %w", i+1, len(batches), err)
			}
			results[i] = accounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*helius.TokenAccountInfo, len(keys))
	for i, batch := range batches {
		for j, key := range batch {
			if j >= len(results[i]) || results[i][j] == nil {
				continue
			}
			if info, ok := results[i][j].Data.TokenAccount(); ok {
				out[key] = info
			}
		}
	}
	return out, nil
}

func chunk(keys []string, size int) [][]string {
	if size <= 0 {
		size = helius.MaxMultipleAccounts
	}
	out := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		out = append(out, keys[start:end])
	}
	return out
}
