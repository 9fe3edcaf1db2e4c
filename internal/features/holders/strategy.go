package holders

import (
	"context"
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Strategy produces owner balances for a mint.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, mint string) (Balances, error)
}

// RPC is the subset of the Helius client the strategies use.
type RPC interface {
	GetProgramAccounts(ctx context.Context, program string, cfg helius.ProgramAccountsConfig) ([]helius.KeyedAccount, error)
	GetMultipleAccounts(ctx context.Context, keys []string, cfg helius.MultipleAccountsConfig) ([]*helius.Account, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]helius.LargestAccount, error)
}

// Program is a token program to enumerate; DataSize 0 sends no size filter.
type Program struct {
	ID       string
	DataSize uint64
}

// TokenPrograms are the legacy SPL Token program (fixed 165-byte accounts)
// and Token-2022 (variable size because of extensions).
var TokenPrograms = []Program{
	{ID: solana.TokenProgramID.String(), DataSize: 165},
	{ID: solana.Token2022ProgramID.String()},
}

const (
	StrategyProgramAccounts       = "program_accounts"
	StrategySlicedProgramAccounts = "sliced_program_accounts"
	StrategyLargestAccounts       = "largest_accounts"
)

type Options struct {
	BatchSize          int
	HydrateConcurrency int
	OwnerCacheSize     int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 || o.BatchSize > helius.MaxMultipleAccounts {
		o.BatchSize = helius.MaxMultipleAccounts
	}
	if o.HydrateConcurrency <= 0 {
		o.HydrateConcurrency = 2
	}
	if o.OwnerCacheSize <= 0 {
		o.OwnerCacheSize = 4096
	}
	return o
}

// NewStrategies builds the named strategies in order.
func NewStrategies(names []string, rpc RPC, opts Options) ([]Strategy, error) {
	opts = opts.withDefaults()

	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case StrategyProgramAccounts:
			out = append(out, NewProgramAccounts(rpc, TokenPrograms))
		case StrategySlicedProgramAccounts:
			out = append(out, NewSlicedProgramAccounts(rpc, TokenPrograms, opts.BatchSize, opts.HydrateConcurrency))
		case StrategyLargestAccounts:
			s, err := NewLargestAccounts(rpc, opts.BatchSize, opts.OwnerCacheSize)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown holder strategy %q", name)
		}
	}
	return out, nil
}

func mintFilters(p Program, mint string) []helius.Filter {
	filters := make([]helius.Filter, 0, 2)
	if p.DataSize > 0 {
		filters = append(filters, helius.DataSizeFilter(p.DataSize))
	}
	return append(filters, helius.MemcmpFilter(0, mint))
}

// amountOf prefers the exact uiAmountString and falls back to uiAmount.
func amountOf(a helius.TokenAmount) (decimal.Decimal, bool) {
	if a.UIAmountString != "" {
		d, err := decimal.NewFromString(a.UIAmountString)
		if err == nil {
			return d, true
		}
	}
	if a.UIAmount != nil {
		return decimal.NewFromFloat(*a.UIAmount), true
	}
	return decimal.Zero, false
}

func addTokenAccount(b Balances, info *helius.TokenAccountInfo) {
	if info == nil || info.Owner == "" {
		return
	}
	amount, ok := amountOf(info.TokenAmount)
	if !ok {
		return
	}
	b.Add(info.Owner, amount)
}
