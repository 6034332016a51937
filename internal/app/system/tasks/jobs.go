package tasks

import (
	"context"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob removes expired OAuth state tokens. The TTL index
// does the same, but its monitor runs only once a minute at best.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// EarningsReconciler is implemented by the contracts ledger.
type EarningsReconciler interface {
	ReconcileEarnings(ctx context.Context) (int, error)
}

// EarningsReconcileJob rebuilds drifted affiliate earnings caches from
// their commissions.
func EarningsReconcileJob(rec EarningsReconciler, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "earnings-reconcile",
		Interval: interval,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := rec.ReconcileEarnings(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("affiliate earnings caches were out of date", zap.Int("corrected", n))
			}
			return nil
		},
	}
}
