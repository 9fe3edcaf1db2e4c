package holders

import (
	"context"
	"time"

	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/infra/metrics"

	"go.uber.org/zap"
)

// Aggregator runs strategies in order until one yields holders.
type Aggregator struct {
	strategies []Strategy
	exclude    []string
	unit       int64
}

func NewAggregator(strategies []Strategy, exclude []string, unit int64) *Aggregator {
	return &Aggregator{strategies: strategies, exclude: exclude, unit: unit}
}

// Holders never fails: when every strategy errors or comes back empty the
// result is an empty, non-nil list.
func (a *Aggregator) Holders(ctx context.Context, mint string) []Holder {
	for _, s := range a.strategies {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		balances, err := s.Fetch(ctx, mint)
		if err != nil {
			metrics.HolderStrategy.WithLabelValues(s.Name(), "error").Inc()
			log.LogWarn("Holder strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("mint", mint),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			continue
		}
		if len(balances) == 0 {
			metrics.HolderStrategy.WithLabelValues(s.Name(), "empty").Inc()
			log.LogDebug("Holder strategy returned no holders", zap.String("strategy", s.Name()), zap.String("mint", mint))
			continue
		}

		metrics.HolderStrategy.WithLabelValues(s.Name(), "ok").Inc()
		ranked := Rank(balances, a.exclude, a.unit)
		log.LogDebug("Holders resolved",
			zap.String("strategy", s.Name()),
			zap.String("mint", mint),
			zap.Int("owners", len(balances)),
			zap.Int("ranked", len(ranked)),
			zap.Duration("duration", time.Since(start)))
		return ranked
	}

	log.LogWarn("No holder strategy produced holders, returning empty list", zap.String("mint", mint))
	return []Holder{}
}
