package epoch

import (
	"context"
	"fmt"

	"gpu-snapshot/internal/clients_api/helius"
	"gpu-snapshot/internal/infra/log"

	"go.uber.org/zap"
)

type RPC interface {
	GetEpochInfo(ctx context.Context, commitment helius.Commitment) (*helius.EpochInfo, error)
	GetRecentPerformanceSamples(ctx context.Context, limit int) ([]helius.PerformanceSample, error)
}

// Estimator derives the epoch countdown from getEpochInfo and the latest performance sample.
type Estimator struct {
	rpc           RPC
	defaultSlotMs float64
}

func NewEstimator(rpc RPC, defaultSlotMs float64) *Estimator {
	if defaultSlotMs <= 0 {
		defaultSlotMs = DefaultSlotMs
	}
	return &Estimator{rpc: rpc, defaultSlotMs: defaultSlotMs}
}

// Estimate asks for finalized epoch info, retries once without a commitment,
// and fails only when both queries fail. Sample failures fall back to the default slot time.
func (e *Estimator) Estimate(ctx context.Context) (State, error) {
	info, err := e.rpc.GetEpochInfo(ctx, helius.CommitmentFinalized)
	if err != nil {
		log.LogWarn("Finalized epoch info failed, retrying without commitment", zap.Error(err))
		info, err = e.rpc.GetEpochInfo(ctx, "")
		if err != nil {
			return State{}, fmt.Errorf("failed to get epoch info: %w", err)
		}
	}

	return Compute(info.SlotIndex, info.SlotsInEpoch, e.slotMs(ctx)), nil
}

func (e *Estimator) slotMs(ctx context.Context) float64 {
	samples, err := e.rpc.GetRecentPerformanceSamples(ctx, 1)
	if err != nil {
		log.LogDebug("Performance samples unavailable, using default slot time", zap.Error(err))
		return e.defaultSlotMs
	}
	if len(samples) == 0 || samples[0].NumSlots == 0 || samples[0].SamplePeriodSecs == 0 {
		return e.defaultSlotMs
	}
	return float64(samples[0].SamplePeriodSecs) / float64(samples[0].NumSlots) * 1000
}
