// Package appstate holds the per-session application state of the web
// client: the session, the active view, the pickup and stats snapshots and
// the transient messages.
//
// A Controller is the single update entry point. Every state-changing
// action is one method; handlers never mutate State directly. Network
// calls run outside the controller lock and their results are applied
// last-write-wins, so concurrent requests from the same browser (a
// double-clicked button, two tabs) are safe but unordered.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/backend"
	"github.com/dalemusser/bhangaar/internal/app/system/flash"
	"github.com/dalemusser/bhangaar/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bhangaar/internal/app/system/lifecycle"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// User-visible confirmations.
const (
	MsgPickupScheduled = "Pickup scheduled successfully!"
	MsgStatusUpdated   = "Status updated successfully!"
	MsgPickupAssigned  = "Pickup assigned successfully!"
	MsgRatingSaved     = "Thank you for your feedback!"
	MsgUserToggled     = "User updated successfully!"
)

// ErrNoSession is returned by actions that need a signed-in session.
var ErrNoSession = errors.New("appstate: not signed in")

// API is the part of the backend client the controller drives.
// *backend.Client implements it.
type API interface {
	Login(ctx context.Context, in backend.LoginRequest) (backend.AuthResponse, error)
	Register(ctx context.Context, in backend.RegisterRequest) (backend.AuthResponse, error)
	Pickups(ctx context.Context, token string) ([]models.Pickup, error)
	UserStats(ctx context.Context, token string) (models.Stats, error)
	CreatePickup(ctx context.Context, token string, in backend.CreatePickupRequest) (backend.CreatePickupResponse, error)
	UpdatePickupStatus(ctx context.Context, token, id string, status models.Status) error
	AssignPickup(ctx context.Context, token, id string) error
	RatePickup(ctx context.Context, token, id string, rating int, feedback string) error
	ChatMessages(ctx context.Context, token, pickupID string) ([]models.ChatMessage, error)
	SendChatMessage(ctx context.Context, token, pickupID, message string) (string, error)
	AdminUsers(ctx context.Context, token string) ([]models.User, error)
	ToggleUser(ctx context.Context, token, userID string) (string, error)
}

// Config tunes a Controller. Zero values pick the defaults.
type Config struct {
	MessageTTL time.Duration    // flash window, default flash.DefaultTTL
	Location   *time.Location   // zone of the schedule form's date and time, default UTC
	Now        func() time.Time // clock, default time.Now
}

// Controller owns one State.
type Controller struct {
	api API
	log *zap.Logger
	ttl time.Duration
	loc *time.Location
	now func() time.Time

	mu         sync.Mutex
	st         State
	lastActive time.Time
}

// NewController returns a controller in the login view.
func NewController(api API, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = flash.DefaultTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Controller{
		api: api,
		log: logger,
		ttl: cfg.MessageTTL,
		loc: cfg.Location,
		now: cfg.Now,
		st:  State{View: ViewLogin},
	}
	c.lastActive = c.now()
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Messages.Expire(c.now())
	return c.st.clone()
}

// Now is the controller's clock.
func (c *Controller) Now() time.Time { return c.now() }

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.View
}

// Session returns the current session, if any.
func (c *Controller) Session() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Session == nil {
		return models.Session{}, false
	}
	return *c.st.Session, true
}

// Touch records activity; the idle sweeper uses it.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = c.now()
	c.mu.Unlock()
}

// LastActive returns when the controller was last touched.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Navigate switches the active view and returns the view actually entered.
func (c *Controller) Navigate(v View) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Resolve(v, c.st.Session != nil)
	if next == ViewChat && c.st.ChatPickupID == "" {
		next = ViewDashboard
	}
	c.st.View = next
	return next
}

// SetError shows msg in the error slot.
func (c *Controller) SetError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Messages.SetError(msg, c.now(), c.ttl)
}

// SetSuccess shows msg in the success slot.
func (c *Controller) SetSuccess(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Messages.SetSuccess(msg, c.now(), c.ttl)
}

// fail surfaces err as the error message and returns it unchanged.
func (c *Controller) fail(err error) error {
	c.SetError(backend.Message(err))
	return err
}

// token returns the current bearer token.
func (c *Controller) token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Session == nil {
		return "", false
	}
	return c.st.Session.Token, true
}

// holdsLocked reports whether token is still the active session's token.
// Must be called with c.mu held.
func (c *Controller) holdsLocked(token string) bool {
	return c.st.Session != nil && c.st.Session.Token == token
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session holder                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Mode selects between signing in and creating an account.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Credentials is what the login form submits.
type Credentials struct {
	Mode     Mode
	Email    string
	Password string

	// Registration only.
	Name    string
	Phone   string
	Role    string
	Address string
}

// AuthError is a failed authentication. Message is what the user sees.
type AuthError struct {
	Mode    Mode
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Mode, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Mode, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (cr Credentials) validate() string {
	if strings.TrimSpace(cr.Email) == "" || cr.Password == "" {
		return "Email and password are required."
	}
	if cr.Mode == ModeRegister {
		if strings.TrimSpace(cr.Name) == "" {
			return "Name is required."
		}
		if _, err := models.ParseRole(cr.Role); err != nil {
			return "Please choose a valid role."
		}
	}
	return ""
}

// Authenticate signs in or registers. On success the token and identity
// are persisted to storage, the session is set, the dashboard becomes
// active and both collections are refreshed. On failure the view stays on
// login, the error message is set and an *AuthError is returned.
func (c *Controller) Authenticate(ctx context.Context, storage Storage, cr Credentials) (models.Session, error) {
	if msg := cr.validate(); msg != "" {
		c.SetError(msg)
		return models.Session{}, &AuthError{Mode: cr.Mode, Message: msg}
	}

	email := strings.TrimSpace(cr.Email)
	var (
		resp backend.AuthResponse
		err  error
	)
	switch cr.Mode {
	case ModeRegister:
		resp, err = c.api.Register(ctx, backend.RegisterRequest{
			Email:    email,
			Password: cr.Password,
			Name:     strings.TrimSpace(cr.Name),
			Phone:    strings.TrimSpace(cr.Phone),
			Role:     strings.ToLower(strings.TrimSpace(cr.Role)),
			Address:  strings.TrimSpace(cr.Address),
		})
	default:
		resp, err = c.api.Login(ctx, backend.LoginRequest{Email: email, Password: cr.Password})
	}
	if err != nil {
		msg := backend.Message(err)
		c.SetError(msg)
		c.log.Info("authentication failed",
			zap.String("mode", cr.Mode.String()),
			zap.String("email", email),
			zap.Error(err))
		return models.Session{}, &AuthError{Mode: cr.Mode, Message: msg, Err: err}
	}

	sess := models.Session{Token: resp.AccessToken, User: resp.User}
	if !sess.Valid() {
		msg := backend.GenericNetworkMessage
		c.SetError(msg)
		c.log.Warn("backend returned an unusable session",
			zap.String("mode", cr.Mode.String()),
			zap.String("role", resp.User.RoleName))
		return models.Session{}, &AuthError{Mode: cr.Mode, Message: msg}
	}

	if entries, err := EncodeSession(sess); err != nil {
		c.log.Error("encode session", zap.Error(err))
	} else if err := storage.Save(entries); err != nil {
		c.log.Error("persist session", zap.Error(err))
	}

	c.mu.Lock()
	c.st = State{Session: &sess, View: ViewDashboard}
	c.mu.Unlock()

	c.log.Info("signed in",
		zap.String("mode", cr.Mode.String()),
		zap.String("user_id", sess.User.ID),
		zap.String("role", sess.User.RoleName))

	c.Refresh(ctx)
	return sess, nil
}

// EndSession clears durable storage, drops the session and the cached
// collections and returns to login. It cannot fail; storage errors are
// logged.
func (c *Controller) EndSession(storage Storage) {
	if storage != nil {
		if err := storage.Clear(); err != nil {
			c.log.Warn("clear session storage", zap.Error(err))
		}
	}
	c.mu.Lock()
	c.st = State{View: ViewLogin}
	c.mu.Unlock()
}

// Restore adopts a session found in storage without asking the backend
// whether the token is still good. It reports whether a session was
// restored; malformed records count as absent.
func (c *Controller) Restore(storage Storage) bool {
	entries, ok := storage.Load()
	if !ok {
		return false
	}
	sess, ok := DecodeSession(entries)
	if !ok {
		c.log.Warn("ignoring malformed stored session")
		return false
	}
	c.mu.Lock()
	c.st = State{Session: &sess, View: ViewDashboard}
	c.mu.Unlock()
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Remote data cache                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// RefreshPickups replaces the pickup snapshot. Failures are logged and the
// previous snapshot is kept.
func (c *Controller) RefreshPickups(ctx context.Context) {
	_ = c.refreshPickups(ctx)
}

// RefreshStats replaces the stats snapshot. Failures are logged and the
// previous snapshot is kept.
func (c *Controller) RefreshStats(ctx context.Context) {
	_ = c.refreshStats(ctx)
}

// Refresh runs both refreshes concurrently and returns once both have
// completed.
func (c *Controller) Refresh(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return c.refreshPickups(ctx) })
	g.Go(func() error { return c.refreshStats(ctx) })
	_ = g.Wait()
}

func (c *Controller) refreshPickups(ctx context.Context) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	pickups, err := c.api.Pickups(ctx, tok)
	if err != nil {
		c.log.Warn("refresh pickups failed; keeping previous snapshot", zap.Error(err))
		return err
	}
	c.mu.Lock()
	if c.holdsLocked(tok) {
		c.st.Pickups = pickups
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) refreshStats(ctx context.Context) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	stats, err := c.api.UserStats(ctx, tok)
	if err != nil {
		c.log.Warn("refresh stats failed; keeping previous snapshot", zap.Error(err))
		return err
	}
	c.mu.Lock()
	if c.holdsLocked(tok) {
		c.st.Stats = stats
	}
	c.mu.Unlock()
	return nil
}

// PickupForm is what the schedule form submits. Date is YYYY-MM-DD and
// Time is HH:MM (or HH:MM:SS), both read in the controller's location.
type PickupForm struct {
	WasteType string
	Date      string
	Time      string
	Location  string
	Address   string
	Notes     string
	PhotoURL  string
}

// FormError is a submission rejected before any call was made.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Field + ": " + e.Message }

// PickupDateLayout is the wire format of pickup_date.
const PickupDateLayout = "2006-01-02T15:04:05.000Z"

// ComposePickupDate combines the form's date and time into the ISO-8601
// instant sent as pickup_date, normalised to UTC.
func ComposePickupDate(date, clock string, loc *time.Location) (string, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t.UTC().Format(PickupDateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid pickup date %q time %q", date, clock)
}

func (c *Controller) buildPickup(f PickupForm) (backend.CreatePickupRequest, error) {
	wt, err := models.ParseWasteType(f.WasteType)
	if err != nil {
		return backend.CreatePickupRequest{}, &FormError{Field: "waste_type", Message: "Please choose a waste type."}
	}
	when, err := ComposePickupDate(f.Date, f.Time, c.loc)
	if err != nil {
		return backend.CreatePickupRequest{}, &FormError{Field: "pickup_date", Message: "Please choose a valid pickup date and time."}
	}
	location := strings.TrimSpace(f.Location)
	if location == "" {
		return backend.CreatePickupRequest{}, &FormError{Field: "location", Message: "Location is required."}
	}
	address := strings.TrimSpace(f.Address)
	if address == "" {
		return backend.CreatePickupRequest{}, &FormError{Field: "address", Message: "Address is required."}
	}
	req := backend.CreatePickupRequest{
		WasteType:  wt,
		PickupDate: when,
		PickupTime: strings.TrimSpace(f.Time),
		Location:   htmlsanitize.PlainText(location),
		Address:    htmlsanitize.PlainText(address),
		Notes:      htmlsanitize.OptionalPlainText(f.Notes),
	}
	if u := strings.TrimSpace(f.PhotoURL); u != "" {
		req.PhotoURL = &u
	}
	return req, nil
}

// CreatePickup submits a new pickup. On success both collections are
// refreshed, the success message is set and the dashboard becomes active.
// On failure only the error message changes.
func (c *Controller) CreatePickup(ctx context.Context, f PickupForm) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	req, err := c.buildPickup(f)
	if err != nil {
		var fe *FormError
		if errors.As(err, &fe) {
			c.SetError(fe.Message)
		}
		return err
	}
	resp, err := c.api.CreatePickup(ctx, tok, req)
	if err != nil {
		return c.fail(err)
	}
	c.log.Info("pickup created",
		zap.String("pickup_id", resp.CreatedID()),
		zap.String("waste_type", string(req.WasteType)),
		zap.String("pickup_date", req.PickupDate))

	c.Refresh(ctx)
	c.mu.Lock()
	if c.holdsLocked(tok) {
		c.st.View = ViewDashboard
	}
	c.st.Messages.SetSuccess(MsgPickupScheduled, c.now(), c.ttl)
	c.mu.Unlock()
	return nil
}

// UpdatePickupStatus sends the status that action leads to. The backend
// decides whether the transition is allowed.
func (c *Controller) UpdatePickupStatus(ctx context.Context, id string, action lifecycle.Action) error {
	if action == lifecycle.Assign {
		return c.AssignPickup(ctx, id)
	}
	target, ok := action.Target()
	if !ok {
		return fmt.Errorf("action %q has no target status", action)
	}
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	if err := c.api.UpdatePickupStatus(ctx, tok, id, target); err != nil {
		return c.fail(err)
	}
	c.log.Info("pickup status updated", zap.String("pickup_id", id), zap.String("status", string(target)))
	c.Refresh(ctx)
	c.SetSuccess(MsgStatusUpdated)
	return nil
}

// AssignPickup claims a pending pickup for the session user.
func (c *Controller) AssignPickup(ctx context.Context, id string) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	if err := c.api.AssignPickup(ctx, tok, id); err != nil {
		return c.fail(err)
	}
	c.log.Info("pickup assigned", zap.String("pickup_id", id))
	c.Refresh(ctx)
	c.SetSuccess(MsgPickupAssigned)
	return nil
}

// RatePickup records the requester's rating of a collected pickup.
func (c *Controller) RatePickup(ctx context.Context, id string, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		c.SetError("Rating must be between 1 and 5.")
		return &FormError{Field: "rating", Message: "Rating must be between 1 and 5."}
	}
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	if err := c.api.RatePickup(ctx, tok, id, rating, htmlsanitize.PlainText(feedback)); err != nil {
		return c.fail(err)
	}
	c.Refresh(ctx)
	c.SetSuccess(MsgRatingSaved)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Chat                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// OpenChat loads the thread of a pickup and makes the chat view active.
func (c *Controller) OpenChat(ctx context.Context, pickupID string) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	msgs, err := c.api.ChatMessages(ctx, tok, pickupID)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	if c.holdsLocked(tok) {
		c.st.ChatPickupID = pickupID
		c.st.Chat = msgs
		c.st.View = ViewChat
	}
	c.mu.Unlock()
	return nil
}

// SendMessage posts text to a pickup's thread and reloads it.
func (c *Controller) SendMessage(ctx context.Context, pickupID, text string) error {
	clean := htmlsanitize.PlainText(text)
	if clean == "" {
		c.SetError("Message cannot be empty.")
		return &FormError{Field: "message", Message: "Message cannot be empty."}
	}
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	if _, err := c.api.SendChatMessage(ctx, tok, pickupID, clean); err != nil {
		return c.fail(err)
	}
	return c.OpenChat(ctx, pickupID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadUsers fetches the account listing and makes manage_users active.
func (c *Controller) LoadUsers(ctx context.Context) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	users, err := c.api.AdminUsers(ctx, tok)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	if c.holdsLocked(tok) {
		c.st.Users = users
		c.st.View = ViewManageUsers
	}
	c.mu.Unlock()
	return nil
}

// ToggleUser enables or disables an account and reloads the listing.
func (c *Controller) ToggleUser(ctx context.Context, userID string) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	msg, err := c.api.ToggleUser(ctx, tok, userID)
	if err != nil {
		return c.fail(err)
	}
	if msg == "" {
		msg = MsgUserToggled
	}
	c.log.Info("user toggled", zap.String("user_id", userID))
	if err := c.LoadUsers(ctx); err != nil {
		return err
	}
	c.SetSuccess(msg)
	return nil
}
