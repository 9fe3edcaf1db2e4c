package holders

// Holder balances and ranking
// Balances are display-scaled token amounts keyed by owner wallet
// Rank applies the same post-processing whichever strategy produced the map

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Holder is one ranked wallet.
type Holder struct {
	Address string
	Balance decimal.Decimal
	GPUs    int64
}

type holderJSON struct {
	Address string      `json:"address"`
	Balance json.Number `json:"balance"`
	GPUs    int64       `json:"gpus"`
}

// MarshalJSON writes balance as a JSON number, not a quoted string.
func (h Holder) MarshalJSON() ([]byte, error) {
	return json.Marshal(holderJSON{
		Address: h.Address,
		Balance: json.Number(h.Balance.String()),
		GPUs:    h.GPUs,
	})
}

func (h *Holder) UnmarshalJSON(b []byte) error {
	var raw holderJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	balance, err := decimal.NewFromString(raw.Balance.String())
	if err != nil {
		return err
	}
	*h = Holder{Address: raw.Address, Balance: balance, GPUs: raw.GPUs}
	return nil
}

// Balances maps owner wallet to its summed balance.
type Balances map[string]decimal.Decimal

// Add accumulates amount for owner. Empty owners and non-positive amounts are ignored.
func (b Balances) Add(owner string, amount decimal.Decimal) {
	if owner == "" || !amount.IsPositive() {
		return
	}
	b[owner] = b[owner].Add(amount)
}

// Merge sums maps per owner. The result does not depend on argument order.
func Merge(maps ...Balances) Balances {
	out := make(Balances)
	for _, m := range maps {
		for owner, amount := range m {
			out[owner] = out[owner].Add(amount)
		}
	}
	return out
}

// UnitCount is floor(balance / unit); zero for non-positive inputs.
func UnitCount(balance decimal.Decimal, unit int64) int64 {
	if unit <= 0 || !balance.IsPositive() {
		return 0
	}
	q, _ := balance.QuoRem(decimal.NewFromInt(unit), 0)
	return q.IntPart()
}

// Rank drops excluded wallets and non-positive balances, sorts descending
// (ties by address) and attaches the unit count.
func Rank(b Balances, exclude []string, unit int64) []Holder {
	skip := make(map[string]struct{}, len(exclude))
	for _, addr := range exclude {
		skip[addr] = struct{}{}
	}

	out := make([]Holder, 0, len(b))
	for owner, balance := range b {
		if _, excluded := skip[owner]; excluded {
			continue
		}
		if !balance.IsPositive() {
			continue
		}
		out = append(out, Holder{Address: owner, Balance: balance, GPUs: UnitCount(balance, unit)})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Balance.Cmp(out[j].Balance); c != 0 {
			return c > 0
		}
		return out[i].Address < out[j].Address
	})
	return out
}
