package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/repository"
)

const cleanupInterval = time.Hour

// StartCleanupWorker purges expired password reset tokens on an interval
// until ctx is cancelled.
func StartCleanupWorker(ctx context.Context, resets repository.PasswordResetRepository, logger *zap.Logger) {
	if resets == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := resets.DeleteExpired(ctx, time.Now())
				if err != nil {
					logger.Warn("password reset cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("expired password resets removed", zap.Int("count", removed))
				}
			}
		}
	}()
}
