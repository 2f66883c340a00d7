// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/backend"
	"github.com/dalemusser/bhangaar/internal/app/store/sessions"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/app/system/ratelimit"
	"github.com/dalemusser/bhangaar/internal/app/system/timeouts"
	"github.com/dalemusser/bhangaar/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// limiterIdle is how long a login bucket may sit untouched before the
// sweeper drops it. Longer than either window, so no live limit is lost.
const limiterIdle = 10 * time.Minute

// ConnectDB builds the back-end dependencies: the backend API client, the
// per-browser controller registry, the login limiter and, in mongo mode,
// the session database.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	api, err := backend.New(appCfg.APIBaseURL, &http.Client{Timeout: timeouts.Backend()}, logger)
	if err != nil {
		return deps, fmt.Errorf("backend client: %w", err)
	}
	deps.Backend = api

	loc, err := time.LoadLocation(appCfg.PickupTimezone)
	if err != nil {
		return deps, fmt.Errorf("pickup_timezone: %w", err)
	}
	ctrlCfg := appstate.Config{MessageTTL: appCfg.MessageTTL, Location: loc}
	ctrlLog := logger.Named("appstate")
	deps.Registry = appstate.NewRegistry(func() *appstate.Controller {
		return appstate.NewController(api, ctrlCfg, ctrlLog)
	})
	deps.StateSweeper = workers.NewStateSweeper(deps.Registry, logger.Named("state-sweeper"),
		appCfg.StateCleanupInterval, appCfg.StateIdleTTL)

	deps.Limiter = ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, time.Minute,
		appCfg.LoginEmailLimit, 5*time.Minute,
	)
	deps.LimiterSweeper = workers.NewStateSweeper(deps.Limiter, logger.Named("limiter-sweeper"),
		appCfg.StateCleanupInterval, limiterIdle)

	logger.Info("backend configured",
		zap.String("api_base_url", api.BaseURL()),
		zap.String("pickup_timezone", loc.String()))

	if !appCfg.UsesMongo() {
		return deps, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return deps, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeouts.Ping())
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return deps, fmt.Errorf("mongo ping: %w", err)
	}

	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	hashKey, blockKey := auth.KeyPair(appCfg.SessionKey)
	deps.Sessions = sessions.New(deps.MongoDatabase,
		auth.CookieOptions(appCfg.SessionDomain, appCfg.SessionMaxAge, coreCfg.Env == "prod"),
		hashKey, blockKey)

	logger.Info("session database connected", zap.String("database", appCfg.MongoDatabase))
	return deps, nil
}

// EnsureSchema sets up indexes or schema as needed.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Sessions == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()
	if err := deps.Sessions.EnsureIndexes(ctx); err != nil {
		logger.Error("session index setup failed", zap.Error(err))
		return err
	}
	return nil
}
