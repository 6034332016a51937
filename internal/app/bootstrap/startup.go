// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/waffle/config"
	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/store/oauthstate"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/tasks"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var (
	jobsMu sync.Mutex
	jobs   *tasks.Runner
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	startJobs(appCfg, deps, logger)
	return nil
}

// ensureAdmin creates or promotes the configured admin account.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	changed, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, email, "")
	if err != nil {
		logger.Error("admin bootstrap failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if changed {
		logger.Info("admin account ensured", zap.String("email", email))
	}
	return nil
}

func startJobs(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	jobsMu.Lock()
	defer jobsMu.Unlock()

	jobs = tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
		tasks.EarningsReconcileJob(ledger.NewService(deps.MongoDatabase, logger), appCfg.EarningsReconcileEvery, logger),
	)
	// Jobs outlive the startup context; Shutdown stops them.
	jobs.Start(context.Background())
}

func stopJobs() {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	if jobs != nil {
		jobs.Stop()
		jobs = nil
	}
}
