package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rewardsWallet      = "rewards"
	epochRewardsWallet = "epochRewards"
)

type fakeHolders struct {
	list []holders.Holder
}

func (f *fakeHolders) Holders(context.Context, string) []holders.Holder {
	return f.list
}

type fakeBalances struct {
	mu       sync.Mutex
	lamports map[string]uint64
	errs     map[string]error
	block    map[string]bool
	calls    []string
}

func (f *fakeBalances) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pubkey)
	block := f.block[pubkey]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err := f.errs[pubkey]; err != nil {
		return 0, err
	}
	return f.lamports[pubkey], nil
}

type fakeEpoch struct {
	state epoch.State
	err   error
}

func (f *fakeEpoch) Estimate(context.Context) (epoch.State, error) { return f.state, f.err }

func newBuilder(h HolderSource, b BalanceSource, e EpochSource, concurrent bool) *Builder {
	builder := NewBuilder(h, b, e, Config{
		RewardsWallet:      rewardsWallet,
		EpochRewardsWallet: epochRewardsWallet,
		Concurrent:         concurrent,
	})
	builder.now = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 123_456_789, time.UTC) }
	return builder
}

func sampleHolders() []holders.Holder {
	return []holders.Holder{
		{Address: "A", Balance: decimal.NewFromInt(3_500_000), GPUs: 3},
		{Address: "B", Balance: decimal.NewFromInt(1_000_000), GPUs: 1},
	}
}

func TestBuildAssemblesPayload(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		b := newBuilder(
			&fakeHolders{list: sampleHolders()},
			&fakeBalances{lamports: map[string]uint64{rewardsWallet: 2_500_000_000, epochRewardsWallet: 1}},
			&fakeEpoch{state: epoch.State{TotalMs: 40000, RemainingMs: 1000}},
			concurrent,
		)

		p, err := b.Build(context.Background(), "mint")
		require.NoError(t, err, "concurrent=%v", concurrent)

		assert.Len(t, p.Holders, 2)
		assert.Equal(t, 2.5, p.GPURewardsSOL)
		assert.Equal(t, 1e-9, p.EpochRewardsSOL)
		assert.Equal(t, epoch.State{TotalMs: 40000, RemainingMs: 1000}, p.Epoch)
		assert.Equal(t, int64(4), p.TotalGPUs())
	}
}

func TestBuildWithNoHoldersStillSucceeds(t *testing.T) {
	b := newBuilder(&fakeHolders{}, &fakeBalances{}, &fakeEpoch{state: epoch.State{TotalMs: 1}}, true)

	p, err := b.Build(context.Background(), "mint")
	require.NoError(t, err)
	require.NotNil(t, p.Holders)
	assert.Empty(t, p.Holders)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"holders":[]`)
}

func TestBuildFailsOnBalanceError(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		b := newBuilder(
			&fakeHolders{list: sampleHolders()},
			&fakeBalances{errs: map[string]error{epochRewardsWallet: errors.New("rpc down")}},
			&fakeEpoch{},
			concurrent,
		)

		p, err := b.Build(context.Background(), "mint")
		assert.Nil(t, p)
		assert.ErrorContains(t, err, "rpc down")
	}
}

func TestBuildFailsOnEpochError(t *testing.T) {
	b := newBuilder(&fakeHolders{}, &fakeBalances{}, &fakeEpoch{err: errors.New("no epoch")}, false)

	_, err := b.Build(context.Background(), "mint")
	assert.ErrorContains(t, err, "epoch countdown: no epoch")
}

func TestBuildConcurrentCancelsSiblingsOnFailure(t *testing.T) {
	balances := &fakeBalances{
		block: map[string]bool{rewardsWallet: true},
	}
	b := newBuilder(&fakeHolders{}, balances, &fakeEpoch{err: errors.New("epoch failed")}, true)

	done := make(chan error, 1)
	go func() {
		_, err := b.Build(context.Background(), "mint")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "epoch failed")
	case <-time.After(2 * time.Second):
		t.Fatal("blocked balance call was not cancelled")
	}
}

func TestBuildSequentialStopsAtFirstFailure(t *testing.T) {
	balances := &fakeBalances{errs: map[string]error{rewardsWallet: errors.New("first fails")}}
	b := newBuilder(&fakeHolders{}, balances, &fakeEpoch{}, false)

	_, err := b.Build(context.Background(), "mint")
	require.Error(t, err)
	assert.Equal(t, []string{rewardsWallet}, balances.calls)
}

func TestPayloadJSONShape(t *testing.T) {
	p := Payload{
		UpdatedAt:       time.Date(2025, 5, 6, 7, 8, 9, 123_456_789, time.FixedZone("X", 3600)),
		Holders:         sampleHolders()[:1],
		GPURewardsSOL:   1.25,
		EpochRewardsSOL: 0,
		Epoch:           epoch.State{TotalMs: 172800000, RemainingMs: 5},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"updatedAt": "2025-05-06T06:08:09.123Z",
		"holders": [{"address": "A", "balance": 3500000, "gpus": 3}],
		"gpuRewardsSol": 1.25,
		"epochRewardsSol": 0,
		"epoch": {"totalMs": 172800000, "remainingMs": 5}
	}`, string(raw))

	var back Payload
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.UpdatedAt.Equal(time.Date(2025, 5, 6, 6, 8, 9, 123_000_000, time.UTC)))
	assert.Equal(t, int64(3), back.TotalGPUs())
}

func TestEpochAtProjectsFromUpdatedAt(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Payload{UpdatedAt: at, Epoch: epoch.State{TotalMs: 10_000, RemainingMs: 5_000}}
	assert.Equal(t, int64(2_000), p.EpochAt(at.Add(3*time.Second)).RemainingMs)
}

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, 0.0, LamportsToSOL(0))
	assert.Equal(t, 1.0, LamportsToSOL(1_000_000_000))
	assert.Equal(t, 0.123456789, LamportsToSOL(123_456_789))
}
