package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// DefaultSessionName is the cookie name used when none is configured.
	DefaultSessionName = "bhangaar-session"

	// sidKey holds the per-browser id that selects the state controller.
	sidKey = "sid"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in identity injected into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	controllerKey  ctxKey = "controller"
	storageKey     ctxKey = "storage"
	sessionIDKey   ctxKey = "sessionID"
)

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// Controller returns the browser's state controller, set by LoadSession.
func Controller(r *http.Request) (*appstate.Controller, bool) {
	c, ok := r.Context().Value(controllerKey).(*appstate.Controller)
	return c, ok
}

// Storage returns the durable storage bound to this request.
func Storage(r *http.Request) appstate.Storage {
	if s, ok := r.Context().Value(storageKey).(appstate.Storage); ok {
		return s
	}
	return appstate.NewMemoryStorage()
}

// SessionID returns the per-browser id, or "".
func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager binds gorilla sessions to per-browser state controllers.
type SessionManager struct {
	store    sessions.Store
	options  *sessions.Options
	name     string
	registry *appstate.Registry
	log      *zap.Logger
}

// NewSessionManager builds a cookie-backed manager. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	opts := CookieOptions(domain, maxAge, secure)

	// The cookie carries the bearer token, so it is encrypted as well as signed.
	hashKey, blockKey := KeyPair(sessionKey)
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.String("name", name))

	return &SessionManager{store: store, options: opts, name: name, log: logger}, nil
}

// CookieOptions returns the session cookie attributes shared by the cookie
// store and the Mongo-backed store.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In dev, Lax is fine.
func CookieOptions(domain string, maxAge time.Duration, secure bool) *sessions.Options {
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

// KeyPair derives the securecookie hash (HMAC-SHA256) and block (AES-256)
// keys from the configured session key. Each key comes from its own HKDF
// expansion so neither equals the raw secret.
func KeyPair(sessionKey string) (hashKey, blockKey []byte) {
	return deriveKey(sessionKey, "bhangaar session hash", 64),
		deriveKey(sessionKey, "bhangaar session block", 32)
}

// CSRFKey derives the 32-byte gorilla/csrf authentication key from the
// session key.
func CSRFKey(sessionKey string) []byte {
	return deriveKey(sessionKey, "bhangaar csrf", 32)
}

func deriveKey(secret, purpose string, n int) []byte {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		// Only reachable when n exceeds 255 SHA-256 blocks.
		panic(fmt.Sprintf("auth: derive %s key: %v", purpose, err))
	}
	return key
}

// UseStore swaps the backing gorilla store (e.g. the Mongo-backed one).
func (sm *SessionManager) UseStore(s sessions.Store) {
	sm.store = s
}

// SetRegistry sets the controller registry LoadSession resolves against.
func (sm *SessionManager) SetRegistry(reg *appstate.Registry) {
	sm.registry = reg
}

// Registry returns the controller registry.
func (sm *SessionManager) Registry() *appstate.Registry { return sm.registry }

// Options returns the cookie options every session is written with.
func (sm *SessionManager) Options() *sessions.Options {
	cp := *sm.options
	return &cp
}

// Name is the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// GetSession returns the gorilla session for r. On a decode failure (e.g.
// rotated key) a fresh session is returned together with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// LoadSession resolves the browser's controller and injects it, the
// request-bound storage and (when signed in) the SessionUser into context.
// A controller seen for the first time restores its session from storage.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.registry == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := sm.GetSession(r)
		if err != nil {
			sm.log.Debug("session decode failed; starting a new one", zap.Error(err))
		}

		sid, _ := sess.Values[sidKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sidKey] = sid
			if err := sess.Save(r, w); err != nil {
				sm.log.Warn("save new session", zap.Error(err))
			}
		}

		storage := NewRequestStorage(sess, w, r)
		ctrl, created := sm.registry.Get(sid)
		if created {
			ctrl.Restore(storage)
		}
		ctrl.Touch()

		ctx := context.WithValue(r.Context(), controllerKey, ctrl)
		ctx = context.WithValue(ctx, storageKey, appstate.Storage(storage))
		ctx = context.WithValue(ctx, sessionIDKey, sid)
		r = r.WithContext(ctx)
		if s, ok := ctrl.Session(); ok {
			r = withUser(r, sessionUser(s))
		}
		next.ServeHTTP(w, r)
	})
}

func sessionUser(s models.Session) *SessionUser {
	return &SessionUser{
		ID:    s.User.ID,
		Name:  s.User.Name,
		Email: s.User.Email,
		Role:  strings.ToLower(s.User.RoleName),
	}
}

// RequireSignedIn ensures there is a user in context (set by LoadSession).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
// If not authorized, it redirects HTML pages (or sets HX-Redirect) instead
// of writing a blank error.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)

			// 1) Not signed in → 401 semantics
			if !ok {
				unauthorized(w, r)
				return
			}

			// 2) Signed in but wrong role → 403 semantics
			if _, has := set[strings.ToLower(u.Role)]; !has {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Browser/HTML: go to login and preserve return
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}

	// Non-HTML (API) callers: plain 401
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// ExpireSession deletes the cookie (and, for server-side stores, the
// stored values).
func (sm *SessionManager) ExpireSession(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session decode failed during logout", zap.Error(err))
	}
	sess.Options = sm.Options()
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Test helpers                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// WithTestUser injects u without going through the session store.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// WithTestController injects a controller and storage, and the signed-in
// user when the controller holds a session.
func WithTestController(r *http.Request, c *appstate.Controller, s appstate.Storage) *http.Request {
	ctx := context.WithValue(r.Context(), controllerKey, c)
	ctx = context.WithValue(ctx, storageKey, s)
	r = r.WithContext(ctx)
	if sess, ok := c.Session(); ok {
		r = withUser(r, sessionUser(sess))
	}
	return r
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
