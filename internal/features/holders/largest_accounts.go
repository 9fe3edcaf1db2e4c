package holders

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LargestAccounts uses getTokenLargestAccounts (top 20 token accounts) and
// resolves each token account to its owner. Owners are cached across calls.
type LargestAccounts struct {
	rpc       RPC
	batchSize int
	owners    *lru.Cache[string, string]
}

func NewLargestAccounts(rpc RPC, batchSize, cacheSize int) (*LargestAccounts, error) {
	owners, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner cache: %w", err)
	}
	return &LargestAccounts{rpc: rpc, batchSize: batchSize, owners: owners}, nil
}

func (s *LargestAccounts) Name() string { return StrategyLargestAccounts }

func (s *LargestAccounts) Fetch(ctx context.Context, mint string) (Balances, error) {
	largest, err := s.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, err
	}

	var unresolved []string
	for _, acct := range largest {
		if _, ok := s.owners.Get(acct.Address); !ok && acct.Address != "" {
			unresolved = append(unresolved, acct.Address)
		}
	}

	if len(unresolved) > 0 {
		infos, err := hydrate(ctx, s.rpc, unresolved, s.batchSize, 1)
		if err != nil {
			return nil, err
		}
		for key, info := range infos {
			if info.Owner != "" {
				s.owners.Add(key, info.Owner)
			}
		}
	}

	b := make(Balances)
	for _, acct := range largest {
		owner, ok := s.owners.Get(acct.Address)
		if !ok {
			continue
		}
		amount, ok := amountOf(acct.TokenAmount)
		if !ok {
			continue
		}
		b.Add(owner, amount)
	}
	return b, nil
}
