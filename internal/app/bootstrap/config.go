// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Bhangaar.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: BHANGAAR_API_BASE_URL, BHANGAAR_SESSION_NAME, etc.
//   - Command-line flags: --api_base_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "api_base_url", Default: "http://localhost:8001", Desc: "Base URL of the Bhangaar Waala REST API"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "bhangaar-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h)"},
	{Name: "session_store", Default: SessionStoreCookie, Desc: "Where session values live: 'cookie' or 'mongo'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (session_store=mongo)"},
	{Name: "mongo_database", Default: "bhangaar", Desc: "MongoDB database name (session_store=mongo)"},

	{Name: "message_ttl", Default: "3s", Desc: "How long success and error messages stay visible"},
	{Name: "pickup_timezone", Default: "UTC", Desc: "IANA timezone for pickup dates (e.g., Asia/Kolkata)"},
	{Name: "state_idle_ttl", Default: "30m", Desc: "Evict per-browser state idle this long"},
	{Name: "state_cleanup_interval", Default: "1m", Desc: "How often idle per-browser state is swept"},

	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per IP per minute"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per 5 minutes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BHANGAAR_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
//
// Handler timeouts are read separately from BHANGAAR_TIMEOUT_*.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BHANGAAR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL: appValues.String("api_base_url"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),
		SessionStore:  strings.ToLower(strings.TrimSpace(appValues.String("session_store"))),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		MessageTTL:           appValues.Duration("message_ttl", 3*time.Second),
		PickupTimezone:       appValues.String("pickup_timezone"),
		StateIdleTTL:         appValues.Duration("state_idle_ttl", 30*time.Minute),
		StateCleanupInterval: appValues.Duration("state_cleanup_interval", time.Minute),

		LoginIPLimit:    appValues.Int("login_ip_limit"),
		LoginEmailLimit: appValues.Int("login_email_limit"),
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("handler timeouts configured from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("store", cur.Store),
			zap.Duration("backend", cur.Backend))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The backend URL, session store kind, timezone and durations are checked
// here so a typo fails at boot rather than on the first request.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	u, err := url.Parse(appCfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url %q must be an absolute http(s) URL", appCfg.APIBaseURL)
	}

	switch appCfg.SessionStore {
	case SessionStoreCookie:
	case SessionStoreMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("session_store=mongo requires mongo_database")
		}
	default:
		return fmt.Errorf("session_store %q: must be %q or %q", appCfg.SessionStore, SessionStoreCookie, SessionStoreMongo)
	}

	if _, err := time.LoadLocation(appCfg.PickupTimezone); err != nil {
		return fmt.Errorf("pickup_timezone %q: %w", appCfg.PickupTimezone, err)
	}

	for name, d := range map[string]time.Duration{
		"message_ttl":            appCfg.MessageTTL,
		"state_idle_ttl":         appCfg.StateIdleTTL,
		"state_cleanup_interval": appCfg.StateCleanupInterval,
		"session_max_age":        appCfg.SessionMaxAge,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if appCfg.LoginIPLimit < 1 || appCfg.LoginEmailLimit < 1 {
		return fmt.Errorf("login limits must be at least 1")
	}
	return nil
}
