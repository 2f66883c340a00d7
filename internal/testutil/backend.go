// internal/testutil/backend.go
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Backend is an in-memory stand-in for the Bhangaar Waala REST API. It
// follows the real service's rules for role scoping, assignment, status
// updates, ratings, chat and stats closely enough to drive the client.
type Backend struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser
	tokens   map[string]string // token -> user id
	pickups  map[string]*models.Pickup
	chats    map[string][]models.ChatMessage
	failures map[string]failure
	requests []RecordedRequest
	seq      int
	clock    time.Time
}

type fakeUser struct {
	models.User
	password string
}

type failure struct {
	status int
	detail string
}

// RecordedRequest is one request the fake received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		users:    map[string]*fakeUser{},
		tokens:   map[string]string{},
		pickups:  map[string]*models.Pickup{},
		chats:    map[string][]models.ChatMessage{},
		failures: map[string]failure{},
		clock:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the fake's base URL.
func (b *Backend) URL() string { return b.srv.URL }

// Close shuts the listener so every later call fails at the transport.
func (b *Backend) Close() { b.srv.Close() }

// Fail forces every request matching method and path (e.g. "GET",
// "/api/pickups") to fail with status and detail. An empty detail produces
// a body without one.
func (b *Backend) Fail(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Recover removes a forced failure.
func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Requests returns every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// LastRequest returns the most recent request for method and path.
func (b *Backend) LastRequest(method, path string) (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if r := b.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

// Count returns how many requests hit method and path.
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// SeedUser creates an account and returns it with a valid token.
func (b *Backend) SeedUser(role, name, email, password string) (models.User, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.addUserLocked(role, name, email, password, "")
	return u.User, b.issueLocked(u.ID)
}

// SeedPickup stores p after filling its id and timestamps when empty.
func (b *Backend) SeedPickup(p models.Pickup) models.Pickup {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.nextIDLocked("pickup")
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = models.Timestamp{Time: b.tickLocked()}
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	cp := p
	b.pickups[p.ID] = &cp
	return cp
}

// Pickup returns the stored pickup.
func (b *Backend) Pickup(id string) (models.Pickup, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pickups[id]
	if !ok {
		return models.Pickup{}, false
	}
	return *p, true
}

// User returns the stored account.
func (b *Backend) User(id string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return models.User{}, false
	}
	return u.User, true
}

func (b *Backend) nextIDLocked(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

// tickLocked advances a deterministic clock so created_at ordering is stable.
func (b *Backend) tickLocked() time.Time {
	b.clock = b.clock.Add(time.Minute)
	return b.clock
}

func (b *Backend) addUserLocked(role, name, email, password, address string) *fakeUser {
	active := true
	created := models.Timestamp{Time: b.tickLocked()}
	u := &fakeUser{
		User: models.User{
			ID:        b.nextIDLocked("user"),
			Name:      name,
			Email:     email,
			Address:   address,
			RoleName:  role,
			IsActive:  &active,
			CreatedAt: &created,
		},
		password: password,
	}
	b.users[u.ID] = u
	return u
}

func (b *Backend) issueLocked(userID string) string {
	tok := "tok-" + userID
	b.tokens[tok] = userID
	return tok
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Post("/api/register", b.register)
	r.Post("/api/login", b.login)

	r.Group(func(pr chi.Router) {
		pr.Use(b.requireToken)
		pr.Get("/api/pickups", b.listPickups)
		pr.Post("/api/pickups", b.createPickup)
		pr.Put("/api/pickups/{id}/assign", b.assignPickup)
		pr.Put("/api/pickups/{id}/status", b.updateStatus)
		pr.Post("/api/pickups/{id}/rate", b.ratePickup)
		pr.Get("/api/chat/{id}", b.listChat)
		pr.Post("/api/chat/{id}", b.sendChat)
		pr.Get("/api/stats/user", b.userStats)
		pr.Get("/api/admin/users", b.adminUsers)
		pr.Put("/api/admin/users/{id}/toggle", b.toggleUser)
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		f, forced := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if forced {
			if f.detail == "" {
				writeJSON(w, f.status, map[string]string{})
				return
			}
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		id, known := b.tokens[tok]
		b.mu.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}
		r.Header.Set("X-Fake-User", id)
		next.ServeHTTP(w, r)
	})
}

// currentLocked returns the caller. Must be called with b.mu held.
func (b *Backend) currentLocked(r *http.Request) *fakeUser {
	return b.users[r.Header.Get("X-Fake-User")]
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
		Address  string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if strings.EqualFold(u.Email, in.Email) {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := b.addUserLocked(in.Role, in.Name, in.Email, in.Password, in.Address)
	u.Phone = in.Phone
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": b.issueLocked(u.ID),
		"token_type":   "bearer",
		"user":         u.User,
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if strings.EqualFold(u.Email, in.Email) && u.password == in.Password {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": b.issueLocked(u.ID),
				"token_type":   "bearer",
				"user":         u.User,
			})
			return
		}
	}
	writeDetail(w, http.StatusBadRequest, "Invalid credentials")
}

func (b *Backend) listPickups(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)

	out := []models.Pickup{}
	for _, p := range b.pickups {
		switch me.RoleName {
		case models.RoleHousehold:
			if p.UserID != me.ID {
				continue
			}
		case models.RoleCollector:
			if p.Status != models.StatusPending && !p.AssignedTo(me.ID) {
				continue
			}
		}
		cp := *p
		if u, ok := b.users[cp.UserID]; ok {
			owner := u.User
			cp.User = &owner
		}
		if cp.CollectorID != nil {
			if u, ok := b.users[*cp.CollectorID]; ok {
				collector := u.User
				cp.Collector = &collector
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createPickup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		WasteType  models.WasteType `json:"waste_type"`
		PickupDate models.Timestamp `json:"pickup_date"`
		PickupTime string           `json:"pickup_time"`
		Location   string           `json:"location"`
		Address    string           `json:"address"`
		PhotoURL   *string          `json:"photo_url"`
		Notes      *string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)
	if me.RoleName != models.RoleHousehold {
		writeDetail(w, http.StatusForbidden, "Only households can create pickup requests")
		return
	}
	now := models.Timestamp{Time: b.tickLocked()}
	p := &models.Pickup{
		ID:         b.nextIDLocked("pickup"),
		WasteType:  in.WasteType,
		PickupDate: in.PickupDate,
		PickupTime: in.PickupTime,
		Location:   in.Location,
		Address:    in.Address,
		PhotoURL:   in.PhotoURL,
		Notes:      in.Notes,
		Status:     models.StatusPending,
		UserID:     me.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.pickups[p.ID] = p
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pickup request created successfully", "pickup_id": p.ID})
}

func (b *Backend) assignPickup(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)
	if me.RoleName != models.RoleCollector && me.RoleName != models.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Only collectors and admins can assign pickups")
		return
	}
	p, ok := b.pickups[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Pickup not found")
		return
	}
	if p.Status != models.StatusPending {
		writeDetail(w, http.StatusBadRequest, "Pickup already assigned or completed")
		return
	}
	p.CollectorID = nil
	if me.RoleName == models.RoleCollector {
		id := me.ID
		p.CollectorID = &id
	}
	p.Status = models.StatusAssigned
	p.UpdatedAt = models.Timestamp{Time: b.tickLocked()}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pickup assigned successfully"})
}

// points awarded to the requester when a pickup is collected.
var ecoPoints = map[models.WasteType]int{
	models.WasteDry:        10,
	models.WasteWet:        5,
	models.WasteElectronic: 25,
	models.WasteMedical:    20,
	models.WasteRecyclable: 15,
}

func (b *Backend) updateStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid status")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)
	p, ok := b.pickups[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Pickup not found")
		return
	}
	if me.RoleName == models.RoleCollector && !p.AssignedTo(me.ID) {
		writeDetail(w, http.StatusForbidden, "You can only update your assigned pickups")
		return
	}
	p.Status = status
	p.UpdatedAt = models.Timestamp{Time: b.tickLocked()}
	if status == models.StatusCollected {
		if owner, ok := b.users[p.UserID]; ok {
			points, known := ecoPoints[p.WasteType]
			if !known {
				points = 10
			}
			owner.EcoPoints += points
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated successfully"})
}

func (b *Backend) ratePickup(w http.ResponseWriter, r *http.Request) {
	rating, err := strconv.Atoi(r.URL.Query().Get("rating"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "rating must be an integer")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)
	if me.RoleName != models.RoleHousehold {
		writeDetail(w, http.StatusForbidden, "Only households can rate pickups")
		return
	}
	p, ok := b.pickups[chi.URLParam(r, "id")]
	if !ok || p.UserID != me.ID {
		writeDetail(w, http.StatusNotFound, "Pickup not found")
		return
	}
	if p.Status != models.StatusCollected {
		writeDetail(w, http.StatusBadRequest, "Can only rate completed pickups")
		return
	}
	p.Rating = &rating
	p.Feedback = nil
	if fb := r.URL.Query().Get("feedback"); fb != "" {
		p.Feedback = &fb
	}
	p.UpdatedAt = models.Timestamp{Time: b.tickLocked()}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rating submitted successfully"})
}

func (b *Backend) listChat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if !b.involvedLocked(w, r, id) {
		return
	}
	msgs := append([]models.ChatMessage{}, b.chats[id]...)
	writeJSON(w, http.StatusOK, msgs)
}

// involvedLocked writes the error and returns false unless the caller is
// the requester or the collector of pickup id.
func (b *Backend) involvedLocked(w http.ResponseWriter, r *http.Request, id string) bool {
	p, ok := b.pickups[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Pickup not found")
		return false
	}
	me := b.currentLocked(r)
	if p.UserID != me.ID && !p.AssignedTo(me.ID) {
		writeDetail(w, http.StatusForbidden, "You are not involved in this pickup")
		return false
	}
	return true
}

func (b *Backend) sendChat(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("message")
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if !b.involvedLocked(w, r, id) {
		return
	}
	me := b.currentLocked(r)
	msg := models.ChatMessage{
		ID:         b.nextIDLocked("msg"),
		PickupID:   id,
		SenderID:   me.ID,
		SenderRole: me.RoleName,
		Message:    text,
		Timestamp:  models.Timestamp{Time: b.tickLocked()},
	}
	b.chats[id] = append(b.chats[id], msg)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message sent successfully", "message_id": msg.ID})
}

func (b *Backend) userStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentLocked(r)

	count := func(match func(p *models.Pickup) bool) float64 {
		n := 0.0
		for _, p := range b.pickups {
			if match(p) {
				n++
			}
		}
		return n
	}

	out := models.Stats{}
	switch me.RoleName {
	case models.RoleHousehold:
		mine := func(p *models.Pickup) bool { return p.UserID == me.ID }
		out[models.StatTotalPickups] = count(mine)
		out[models.StatCompletedPickups] = count(func(p *models.Pickup) bool {
			return mine(p) && p.Status == models.StatusCollected
		})
		out[models.StatPendingPickups] = count(func(p *models.Pickup) bool {
			return mine(p) && !p.Status.Terminal()
		})
		out[models.StatEcoPoints] = float64(me.EcoPoints)
	case models.RoleCollector:
		mine := func(p *models.Pickup) bool { return p.AssignedTo(me.ID) }
		out[models.StatTotalPickups] = count(mine)
		out[models.StatCompletedPickups] = count(func(p *models.Pickup) bool {
			return mine(p) && p.Status == models.StatusCollected
		})
		var sum, rated float64
		for _, p := range b.pickups {
			if mine(p) && p.Rating != nil {
				sum += float64(*p.Rating)
				rated++
			}
		}
		out[models.StatAverageRating] = 0
		if rated > 0 {
			out[models.StatAverageRating] = math.Round(sum/rated*100) / 100
		}
		out[models.StatPendingAssignments] = count(func(p *models.Pickup) bool { return p.Status == models.StatusPending })
	default:
		var households, collectors float64
		for _, u := range b.users {
			switch u.RoleName {
			case models.RoleHousehold:
				households++
			case models.RoleCollector:
				collectors++
			}
		}
		total := count(func(*models.Pickup) bool { return true })
		completed := count(func(p *models.Pickup) bool { return p.Status == models.StatusCollected })
		out[models.StatTotalUsers] = households
		out[models.StatTotalCollectors] = collectors
		out[models.StatTotalPickups] = total
		out[models.StatCompletedPickups] = completed
		out[models.StatCompletionRate] = 0
		if total > 0 {
			out[models.StatCompletionRate] = math.Round(completed/total*100*100) / 100
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) adminUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.currentLocked(r).RoleName != models.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Admin access required")
		return
	}
	out := make([]models.User, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) toggleUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.currentLocked(r).RoleName != models.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Admin access required")
		return
	}
	u, ok := b.users[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	active := !u.Active()
	u.IsActive = &active
	state := "deactivated"
	if active {
		state = "activated"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User " + state + " successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
