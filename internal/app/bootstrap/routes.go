// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatfeature "github.com/dalemusser/bhangaar/internal/app/features/chat"
	dashboardfeature "github.com/dalemusser/bhangaar/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/bhangaar/internal/app/features/errors"
	healthfeature "github.com/dalemusser/bhangaar/internal/app/features/health"
	loginfeature "github.com/dalemusser/bhangaar/internal/app/features/login"
	logoutfeature "github.com/dalemusser/bhangaar/internal/app/features/logout"
	pickupsfeature "github.com/dalemusser/bhangaar/internal/app/features/pickups"
	systemusersfeature "github.com/dalemusser/bhangaar/internal/app/features/systemusers"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: the backend client, controller registry and session store
//   - logger: the fully configured zap.Logger for this app
//
// Bhangaar initializes the template engine, applies CSRF and session
// middleware, and mounts the feature routers: login, logout, the view
// router at the root, pickup actions, chat, and user management.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	if deps.Sessions != nil {
		sessionMgr.UseStore(deps.Sessions)
		logger.Info("sessions stored in MongoDB")
	}
	sessionMgr.SetRegistry(deps.Registry)

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	protect := csrf.Protect(auth.CSRFKey(appCfg.SessionKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(errorsHandler.CSRFFailure)),
	)
	if !secure {
		// Over plain http the origin check must not assume https.
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
			})
		})
	}

	// Health and static assets skip CSRF and sessions.
	var storePinger healthfeature.StorePinger
	if deps.Sessions != nil {
		storePinger = deps.Sessions
	}
	healthHandler := healthfeature.NewHandler(deps.Backend, storePinger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		app.Use(protect)

		// Binds the browser's controller (and the user, when signed in).
		app.Use(sessionMgr.LoadSession)

		loginHandler := loginfeature.NewHandler(errLog, deps.Limiter, logger)
		app.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
		app.Mount("/logout", logoutfeature.Routes(logoutHandler))

		app.Get("/forbidden", errorsHandler.Forbidden)
		app.Get("/unauthorized", errorsHandler.Unauthorized)

		pickupsHandler := pickupsfeature.NewHandler(errLog, logger)
		app.Mount("/pickups", pickupsfeature.Routes(pickupsHandler, sessionMgr))

		chatHandler := chatfeature.NewHandler(errLog, logger)
		app.Mount("/chat", chatfeature.Routes(chatHandler, sessionMgr))

		usersHandler := systemusersfeature.NewHandler(errLog, logger)
		app.Mount("/admin/users", systemusersfeature.Routes(usersHandler, sessionMgr))

		// Views (dashboard, schedule, placeholders) at the root.
		dashboardHandler := dashboardfeature.NewHandler(errLog, logger)
		app.Mount("/", dashboardfeature.Routes(dashboardHandler, sessionMgr))
	})

	return r, nil
}
