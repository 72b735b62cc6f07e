package searchcore

import (
	"context"

	"go.uber.org/zap"
)

// prefetchCount is how many popular terms a warm-up pass executes.
const prefetchCount = 5

// PrefetchPopular warms the results cache by executing the most popular
// recorded terms as plain all-type searches. Individual failures are
// logged and skipped; the pass reports only how many terms were warmed.
func (e *Engine) PrefetchPopular(ctx context.Context) int {
	if !e.opts.EnableCaching {
		return 0
	}
	warmed := 0
	for _, term := range e.mon.PopularTerms(prefetchCount) {
		if ctx.Err() != nil {
			break
		}
		q := Query{Term: term, Type: TypeAll}
		if _, err := e.Search(ctx, q, false); err != nil {
			e.logger.Warn("Prefetch search failed",
				zap.String("term", term),
				zap.Error(err),
			)
			continue
		}
		warmed++
	}
	if warmed > 0 {
		e.logger.Info("Prefetched popular searches", zap.Int("count", warmed))
	}
	return warmed
}
