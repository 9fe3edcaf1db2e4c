package epoch

import (
	"context"
	"errors"
	"testing"
	"time"

	"gpu-snapshot/internal/clients_api/helius"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name                     string
		index, slots             uint64
		avg                      float64
		wantTotal, wantRemaining int64
	}{
		{"start of epoch", 0, 100, 400, 40000, 40000},
		{"end of epoch", 100, 100, 400, 40000, 0},
		{"past the end", 120, 100, 400, 40000, 0},
		{"empty epoch", 0, 0, 400, 1, 0},
		{"rounding", 1, 3, 333.3333, 1000, 667},
		{"mainnet", 216000, 432000, 400, 172_800_000, 86_400_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.index, tt.slots, tt.avg)
			assert.Equal(t, tt.wantTotal, got.TotalMs)
			assert.Equal(t, tt.wantRemaining, got.RemainingMs)
		})
	}
}

func TestStateAtProjectsAndFloors(t *testing.T) {
	synced := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := State{TotalMs: 100_000, RemainingMs: 10_000}

	assert.Equal(t, int64(7_000), s.At(synced, synced.Add(3*time.Second)).RemainingMs)
	assert.Equal(t, int64(0), s.At(synced, synced.Add(time.Minute)).RemainingMs)
	assert.Equal(t, int64(10_000), s.At(synced, synced.Add(-time.Second)).RemainingMs)
	assert.Equal(t, int64(100_000), s.At(synced, synced.Add(time.Minute)).TotalMs)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, State{}.Progress())
	assert.Equal(t, 0.25, State{TotalMs: 100, RemainingMs: 75}.Progress())
	assert.Equal(t, 1.0, State{TotalMs: 100, RemainingMs: 0}.Progress())
	assert.Equal(t, 0.0, State{TotalMs: 100, RemainingMs: 150}.Progress())
}

func TestFormatHMS(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatHMS(0))
	assert.Equal(t, "00:00:00", FormatHMS(-5))
	assert.Equal(t, "00:00:59", FormatHMS(59_999))
	assert.Equal(t, "01:01:01", FormatHMS(3_661_000))
	assert.Equal(t, "48:00:00", FormatHMS(172_800_000))
}

func TestFormatMS(t *testing.T) {
	assert.Equal(t, "00:00", FormatMS(0))
	assert.Equal(t, "29:59", FormatMS(1_799_999))
	assert.Equal(t, "30:00", FormatMS(1_800_000))
}

func TestRewardCycle(t *testing.T) {
	c := RewardCycle{Period: 30 * time.Minute}

	at := time.Date(2025, 3, 1, 10, 12, 30, 0, time.UTC)
	assert.Equal(t, 17*time.Minute+30*time.Second, c.Remaining(at))
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), c.Next(at))
	assert.InDelta(t, 12.5/30, c.Progress(at), 1e-9)

	boundary := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Minute, c.Remaining(boundary))
	assert.Equal(t, 0.0, c.Progress(boundary))

	assert.Equal(t, DefaultRewardPeriod, RewardCycle{}.Remaining(boundary))
}

type fakeRPC struct {
	infoErrs    map[helius.Commitment]error
	info        helius.EpochInfo
	commitments []helius.Commitment
	samples     []helius.PerformanceSample
	samplesErr  error
}

func (f *fakeRPC) GetEpochInfo(_ context.Context, commitment helius.Commitment) (*helius.EpochInfo, error) {
	f.commitments = append(f.commitments, commitment)
	if err := f.infoErrs[commitment]; err != nil {
		return nil, err
	}
	info := f.info
	return &info, nil
}

func (f *fakeRPC) GetRecentPerformanceSamples(context.Context, int) ([]helius.PerformanceSample, error) {
	return f.samples, f.samplesErr
}

func TestEstimatorUsesSampleSlotTime(t *testing.T) {
	rpc := &fakeRPC{
		info:    helius.EpochInfo{SlotIndex: 0, SlotsInEpoch: 100},
		samples: []helius.PerformanceSample{{NumSlots: 150, SamplePeriodSecs: 60}},
	}

	got, err := NewEstimator(rpc, 400).Estimate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{TotalMs: 40000, RemainingMs: 40000}, got)
	assert.Equal(t, []helius.Commitment{helius.CommitmentFinalized}, rpc.commitments)
}

func TestEstimatorFallsBackToDefaultSlotTime(t *testing.T) {
	for name, rpc := range map[string]*fakeRPC{
		"sample error":  {samplesErr: errors.New("boom")},
		"no samples":    {},
		"zero numSlots": {samples: []helius.PerformanceSample{{NumSlots: 0, SamplePeriodSecs: 60}}},
		"zero period":   {samples: []helius.PerformanceSample{{NumSlots: 100, SamplePeriodSecs: 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			rpc.info = helius.EpochInfo{SlotIndex: 50, SlotsInEpoch: 100}
			got, err := NewEstimator(rpc, 0).Estimate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, State{TotalMs: 40000, RemainingMs: 20000}, got)
		})
	}
}

func TestEstimatorRetriesWithoutCommitment(t *testing.T) {
	rpc := &fakeRPC{
		infoErrs: map[helius.Commitment]error{helius.CommitmentFinalized: errors.New("finalized unsupported")},
		info:     helius.EpochInfo{SlotIndex: 100, SlotsInEpoch: 100},
	}

	got, err := NewEstimator(rpc, 400).Estimate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RemainingMs)
	assert.Equal(t, []helius.Commitment{helius.CommitmentFinalized, ""}, rpc.commitments)
}

func TestEstimatorFailsWhenBothEpochQueriesFail(t *testing.T) {
	rpc := &fakeRPC{infoErrs: map[helius.Commitment]error{
		helius.CommitmentFinalized: errors.New("first"),
		"":                         errors.New("second"),
	}}

	_, err := NewEstimator(rpc, 400).Estimate(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "second")
}
