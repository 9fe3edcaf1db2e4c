package snapshot

import (
	"encoding/json"
	"time"

	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/features/leaderboard"
)

// TimeFormat is ISO-8601 UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

const lamportsPerSOL = 1e9

// Payload is the aggregated snapshot served to the dashboard.
type Payload struct {
	UpdatedAt       time.Time
	Holders         []holders.Holder
	GPURewardsSOL   float64
	EpochRewardsSOL float64
	Epoch           epoch.State
}

type payloadJSON struct {
	UpdatedAt       string           `json:"updatedAt"`
	Holders         []holders.Holder `json:"holders"`
	GPURewardsSOL   float64          `json:"gpuRewardsSol"`
	EpochRewardsSOL float64          `json:"epochRewardsSol"`
	Epoch           epoch.State      `json:"epoch"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	hs := p.Holders
	if hs == nil {
		hs = []holders.Holder{}
	}
	return json.Marshal(payloadJSON{
		UpdatedAt:       p.UpdatedAt.UTC().Format(TimeFormat),
		Holders:         hs,
		GPURewardsSOL:   p.GPURewardsSOL,
		EpochRewardsSOL: p.EpochRewardsSOL,
		Epoch:           p.Epoch,
	})
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	var raw payloadJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, raw.UpdatedAt)
	if err != nil {
		return err
	}
	*p = Payload{
		UpdatedAt:       updatedAt,
		Holders:         raw.Holders,
		GPURewardsSOL:   raw.GPURewardsSOL,
		EpochRewardsSOL: raw.EpochRewardsSOL,
		Epoch:           raw.Epoch,
	}
	return nil
}

// TotalGPUs sums the GPU count of every holder.
func (p *Payload) TotalGPUs() int64 {
	return leaderboard.TotalGPUs(p.Holders)
}

// EpochAt is the epoch countdown projected from UpdatedAt to now.
func (p *Payload) EpochAt(now time.Time) epoch.State {
	return p.Epoch.At(p.UpdatedAt, now)
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / lamportsPerSOL
}
