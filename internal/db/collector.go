package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/minihub/internal/metrics"
	"github.com/atinyakov/minihub/internal/models"
)

// TableCounter reports the current row count per table.
type TableCounter interface {
	TableCounts(ctx context.Context) ([]models.TableStat, error)
}

// StartStatsCollector refreshes metrics.TableRows every interval until ctx
// is done. The first refresh happens on the first tick.
func StartStatsCollector(
	ctx context.Context,
	counter TableCounter,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(ctx, counter, log)
			}
		}
	}()
}

func collect(ctx context.Context, counter TableCounter, log *zap.Logger) {
	stats, err := counter.TableCounts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("failed to collect table stats", zap.Error(err))
		}
		return
	}
	for _, st := range stats {
		metrics.TableRows.WithLabelValues(st.Table).Set(float64(st.Count))
	}
	log.Debug("collected table stats", zap.Int("tables", len(stats)))
}
