package epoch

// Epoch countdown
// The RPC reports slot progress; the countdown converts remaining slots to
// milliseconds using the recent average slot duration

import (
	"fmt"
	"math"
	"time"
)

// DefaultSlotMs is the nominal Solana slot time used when no sample is available.
const DefaultSlotMs = 400.0

// State is the epoch countdown at the moment it was computed.
type State struct {
	TotalMs     int64 `json:"totalMs"`
	RemainingMs int64 `json:"remainingMs"`
}

// Compute converts slot progress into a countdown. TotalMs is at least 1.
func Compute(slotIndex, slotsInEpoch uint64, avgSlotMs float64) State {
	var remainingSlots uint64
	if slotsInEpoch > slotIndex {
		remainingSlots = slotsInEpoch - slotIndex
	}
	total := int64(math.Round(float64(slotsInEpoch) * avgSlotMs))
	remaining := int64(math.Round(float64(remainingSlots) * avgSlotMs))
	return State{
		TotalMs:     max(1, total),
		RemainingMs: max(0, remaining),
	}
}

// At projects the countdown from syncedAt to now. The result never goes below zero.
func (s State) At(syncedAt, now time.Time) State {
	elapsed := now.Sub(syncedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	s.RemainingMs = max(0, s.RemainingMs-elapsed)
	return s
}

// Progress is the elapsed fraction of the epoch in [0, 1].
func (s State) Progress() float64 {
	if s.TotalMs <= 0 {
		return 0
	}
	p := float64(s.TotalMs-s.RemainingMs) / float64(s.TotalMs)
	return math.Min(1, math.Max(0, p))
}

// FormatHMS renders ms as HH:MM:SS. Hours are not wrapped at 24.
func FormatHMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSec := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", totalSec/3600, (totalSec%3600)/60, totalSec%60)
}

// FormatMS renders ms as MM:SS.
func FormatMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d", ms/60000, (ms%60000)/1000)
}
