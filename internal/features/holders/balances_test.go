package holders

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unit = 1_000_000

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUnitCount(t *testing.T) {
	tests := []struct {
		balance string
		want    int64
	}{
		{"0", 0},
		{"999999", 0},
		{"1000000", 1},
		{"1999999", 1},
		{"1999999.999999", 1},
		{"2000000", 2},
		{"123456789.5", 123},
		{"-5000000", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnitCount(dec(tt.balance), unit), "balance %s", tt.balance)
	}
	assert.Equal(t, int64(0), UnitCount(dec("5"), 0))
}

func TestMergeIsOrderIndependent(t *testing.T) {
	a := Balances{"A": dec("3")}
	b := Balances{"A": dec("2"), "B": dec("5")}

	for _, merged := range []Balances{Merge(a, b), Merge(b, a)} {
		require.Len(t, merged, 2)
		assert.True(t, merged["A"].Equal(dec("5")))
		assert.True(t, merged["B"].Equal(dec("5")))
	}
	assert.Len(t, a, 1, "inputs are not mutated")
}

func TestMergeIsExactForFractions(t *testing.T) {
	merged := Merge(Balances{"A": dec("0.1")}, Balances{"A": dec("0.2")})
	assert.Equal(t, "0.3", merged["A"].String())
}

func TestBalancesAddIgnoresEmptyOwnerAndNonPositive(t *testing.T) {
	b := make(Balances)
	b.Add("", dec("10"))
	b.Add("A", dec("0"))
	b.Add("A", dec("-1"))
	b.Add("A", dec("1.5"))
	b.Add("A", dec("2.5"))

	require.Len(t, b, 1)
	assert.True(t, b["A"].Equal(dec("4")))
}

func TestRankExcludesSortsAndCountsUnits(t *testing.T) {
	b := Balances{
		"small":    dec("10"),
		"whale":    dec("5000000"),
		"amm":      dec("900000000"),
		"mid":      dec("1500000"),
		"zero":     dec("0"),
		"negative": dec("-3"),
	}

	ranked := Rank(b, []string{"amm"}, unit)

	require.Len(t, ranked, 3)
	assert.Equal(t, "whale", ranked[0].Address)
	assert.Equal(t, int64(5), ranked[0].GPUs)
	assert.Equal(t, "mid", ranked[1].Address)
	assert.Equal(t, int64(1), ranked[1].GPUs)
	assert.Equal(t, "small", ranked[2].Address)
	assert.Equal(t, int64(0), ranked[2].GPUs)
	for _, h := range ranked {
		assert.NotEqual(t, "amm", h.Address)
	}
}

func TestRankTiesAreStable(t *testing.T) {
	b := Balances{"C": dec("7"), "A": dec("7"), "B": dec("7"), "D": dec("9")}

	first := Rank(b, nil, unit)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Rank(b, nil, unit))
	}
	assert.Equal(t, []string{"D", "A", "B", "C"}, addresses(first))
}

func TestRankEmptyIsNonNil(t *testing.T) {
	ranked := Rank(Balances{}, nil, unit)
	require.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestHolderJSONBalanceIsNumber(t *testing.T) {
	h := Holder{Address: "Wallet1", Balance: dec("1500000.25"), GPUs: 1}

	b, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"Wallet1","balance":1500000.25,"gpus":1}`, string(b))

	var back Holder
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Balance.Equal(h.Balance))
	assert.Equal(t, h.Address, back.Address)
}

func addresses(hs []Holder) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Address
	}
	return out
}
