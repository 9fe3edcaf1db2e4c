package epoch

import "time"

// DefaultRewardPeriod is the snapshot and distribution cadence.
const DefaultRewardPeriod = 30 * time.Minute

// RewardCycle is a fixed wall-clock cycle aligned to multiples of Period since the Unix epoch
// (:00 and :30 for the default period).
type RewardCycle struct {
	Period time.Duration
}

func (c RewardCycle) period() time.Duration {
	if c.Period <= 0 {
		return DefaultRewardPeriod
	}
	return c.Period
}

// Remaining is the time until the next boundary. On a boundary a full period remains.
func (c RewardCycle) Remaining(now time.Time) time.Duration {
	p := c.period()
	into := time.Duration(now.UnixNano()) % p
	return p - into
}

// Next is the upcoming boundary.
func (c RewardCycle) Next(now time.Time) time.Time {
	return now.Add(c.Remaining(now))
}

// Progress is the elapsed fraction of the current cycle in [0, 1).
func (c RewardCycle) Progress(now time.Time) float64 {
	p := c.period()
	return float64(p-c.Remaining(now)) / float64(p)
}
