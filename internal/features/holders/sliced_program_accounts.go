package holders

import (
	"context"
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"

	"golang.org/x/sync/errgroup"
)

// SlicedProgramAccounts lists account keys only (zero-length data slice) and
// hydrates them in batches. Lighter on providers that reject large parsed scans.
type SlicedProgramAccounts struct {
	rpc         RPC
	programs    []Program
	batchSize   int
	concurrency int
}

func NewSlicedProgramAccounts(rpc RPC, programs []Program, batchSize, concurrency int) *SlicedProgramAccounts {
	return &SlicedProgramAccounts{rpc: rpc, programs: programs, batchSize: batchSize, concurrency: concurrency}
}

func (s *SlicedProgramAccounts) Name() string { return StrategySlicedProgramAccounts }

func (s *SlicedProgramAccounts) Fetch(ctx context.Context, mint string) (Balances, error) {
	perProgram := make([][]string, len(s.programs))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.programs {
		g.Go(func() error {
			accounts, err := s.rpc.GetProgramAccounts(gctx, p.ID, helius.ProgramAccountsConfig{
				Encoding:   helius.EncodingBase64,
				Commitment: helius.CommitmentConfirmed,
				Filters:    mintFilters(p, mint),
				DataSlice:  &helius.DataSlice{Offset: 0, Length: 0},
			})
			if err != nil {
				return fmt.Errorf("program %s: %w", p.ID, err)
			}
			keys := make([]string, 0, len(accounts))
			for _, acct := range accounts {
				if acct.Pubkey != "" {
					keys = append(keys, acct.Pubkey)
				}
			}
			perProgram[i] = keys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var keys []string
	for _, k := range perProgram {
		keys = append(keys, k...)
	}
	if len(keys) == 0 {
		return Balances{}, nil
	}

	infos, err := hydrate(ctx, s.rpc, keys, s.batchSize, s.concurrency)
	if err != nil {
		return nil, err
	}

	b := make(Balances)
	for _, info := range infos {
		addTokenAccount(b, info)
	}
	return b, nil
}
