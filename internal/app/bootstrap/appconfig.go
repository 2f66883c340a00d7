// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Session store kinds.
const (
	SessionStoreCookie = "cookie" // token and identity live in the encrypted cookie
	SessionStoreMongo  = "mongo"  // cookie carries an id; values live in MongoDB
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where everything specific to Bhangaar lives: where the
// REST backend is, how browser sessions are kept, and how long per-browser
// state survives.
type AppConfig struct {
	// REST backend
	APIBaseURL string // e.g. http://localhost:8001

	// Session management configuration
	SessionKey    string        // Secret key for signing and encrypting session cookies
	SessionName   string        // Cookie name for sessions (default: bhangaar-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime
	SessionStore  string        // "cookie" or "mongo"

	// MongoDB connection configuration (session_store=mongo only)
	MongoURI      string
	MongoDatabase string

	// Per-browser state
	MessageTTL           time.Duration // how long a success/error message stays up
	PickupTimezone       string        // IANA zone the schedule form and dates use
	StateIdleTTL         time.Duration // idle browser state is evicted after this
	StateCleanupInterval time.Duration // how often the sweeper runs

	// Login throttling
	LoginIPLimit    int // attempts per IP per minute
	LoginEmailLimit int // attempts per email per 5 minutes
}

// UsesMongo reports whether session values are kept server-side.
func (c AppConfig) UsesMongo() bool {
	return c.SessionStore == SessionStoreMongo
}
