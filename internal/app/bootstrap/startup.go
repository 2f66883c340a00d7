// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/resources"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the shared templates, fixes the display zone and starts the sweepers that
// drop idle controllers and login buckets.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if loc, err := time.LoadLocation(appCfg.PickupTimezone); err == nil {
		viewdata.SetLocation(loc)
	}

	if deps.StateSweeper != nil {
		deps.StateSweeper.Start()
	}
	if deps.LimiterSweeper != nil {
		deps.LimiterSweeper.Start()
	}
	return nil
}
