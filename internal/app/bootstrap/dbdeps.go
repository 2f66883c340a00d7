// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/bhangaar/internal/app/backend"
	"github.com/dalemusser/bhangaar/internal/app/store/sessions"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/ratelimit"
	"github.com/dalemusser/bhangaar/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value between hooks, so everything with state
// lives behind a pointer and is built once in ConnectDB.
type DBDeps struct {
	// Set only when session_store is "mongo".
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Sessions      *sessions.Store

	Backend  *backend.Client
	Registry *appstate.Registry
	Limiter  *ratelimit.LoginLimiter

	StateSweeper   *workers.StateSweeper
	LimiterSweeper *workers.StateSweeper
}
