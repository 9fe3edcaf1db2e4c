package holders

import (
	"context"
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"

	"golang.org/x/sync/errgroup"
)

// ProgramAccounts enumerates every token account of the mint with jsonParsed
// encoding, one getProgramAccounts call per program.
type ProgramAccounts struct {
	rpc      RPC
	programs []Program
}

func NewProgramAccounts(rpc RPC, programs []Program) *ProgramAccounts {
	return &ProgramAccounts{rpc: rpc, programs: programs}
}

func (s *ProgramAccounts) Name() string { return StrategyProgramAccounts }

// Fetch queries all programs concurrently; any failing program fails the strategy.
func (s *ProgramAccounts) Fetch(ctx context.Context, mint string) (Balances, error) {
	perProgram := make([]Balances, len(s.programs))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.programs {
		g.Go(func() error {
			accounts, err := s.rpc.GetProgramAccounts(gctx, p.ID, helius.ProgramAccountsConfig{
				Encoding:   helius.EncodingJSONParsed,
				Commitment: helius.CommitmentConfirmed,
				Filters:    mintFilters(p, mint),
			})
			if err != nil {
				return fmt.Errorf("program %s: %w", p.ID, err)
			}

			b := make(Balances)
			for _, acct := range accounts {
				info, ok := acct.Account.Data.TokenAccount()
				if !ok {
					continue
				}
				addTokenAccount(b, info)
			}
			perProgram[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(perProgram...), nil
}
