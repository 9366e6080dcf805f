package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultPruneInterval = 10 * time.Minute

// Pruner deletes expired records and reports how many were removed.
type Pruner interface {
	PruneDetected(ctx context.Context) (int64, error)
}

// RunPruner deletes expired detected-sound records on a fixed interval until
// the context is cancelled. It shares nothing with the presence or fan-out
// path beyond the durable store.
func RunPruner(ctx context.Context, pruner Pruner, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultPruneInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := pruner.PruneDetected(ctx)
			if err != nil {
				logger.Warn("detected sound pruning failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("pruned detected sounds", zap.Int64("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
