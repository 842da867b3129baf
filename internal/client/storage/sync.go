package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/service"
)

// Retrier re-pushes records that have not reached the remote store.
type Retrier interface {
	RetryPending(ctx context.Context, ownerID string) []service.Status
}

// StartAutoSync retries pending records of ownerID every interval until ctx
// is done.
func StartAutoSync(ctx context.Context, r Retrier, ownerID string, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SyncOnce(ctx, r, ownerID, log)
			}
		}
	}()
}

// SyncOnce runs one retry pass and returns how many records are still
// pending afterwards.
func SyncOnce(ctx context.Context, r Retrier, ownerID string, log *zap.Logger) int {
	pending := 0
	statuses := r.RetryPending(ctx, ownerID)
	for _, st := range statuses {
		if !st.OK() {
			pending++
		}
	}
	if len(statuses) > 0 {
		log.Info("auto-sync pass",
			zap.Int("attempted", len(statuses)),
			zap.Int("still_pending", pending))
	}
	return pending
}
