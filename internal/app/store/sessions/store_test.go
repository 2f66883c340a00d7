package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/store/sessions"
	"github.com/dalemusser/bhangaar/internal/testutil"
	gsessions "github.com/gorilla/sessions"
)

var hashKey = []byte("test-session-key-must-be-32-chars-long")

func newStore(t *testing.T) *sessions.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := sessions.New(db, &gsessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true}, hashKey)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func TestStore_SaveAndReload(t *testing.T) {
	store := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.Get(req, "bhangaar")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sess.IsNew {
		t.Error("expected a new session without a cookie")
	}
	sess.Values["access_token"] = "tok-1"
	sess.Values["user"] = `{"id":"user-1","role":"household"}`

	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Value == sess.ID {
		t.Error("cookie must carry the encoded id, not the raw one")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	again, err := store.Get(next, "bhangaar")
	if err != nil {
		t.Fatalf("Get (reload): %v", err)
	}
	if again.IsNew || again.ID != sess.ID {
		t.Errorf("expected the stored session, got new=%v id=%q", again.IsNew, again.ID)
	}
	if again.Values["access_token"] != "tok-1" {
		t.Errorf("access_token: got %v", again.Values["access_token"])
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if n, err := store.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count: got %d, %v", n, err)
	}
}

func TestStore_NegativeMaxAgeDeletes(t *testing.T) {
	store := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := store.Get(req, "bhangaar")
	sess.Values["sid"] = "abc"
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sess.Options.MaxAge = -1
	rec = httptest.NewRecorder()
	if err := store.Save(req, rec, sess); err != nil {
		t.Fatalf("Save (delete): %v", err)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", c)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected the record to be deleted, count=%d", n)
	}
}

func TestStore_TamperedCookie(t *testing.T) {
	store := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "bhangaar", Value: "not-a-signed-value"})
	sess, err := store.Get(req, "bhangaar")
	if err == nil {
		t.Error("expected a decode error")
	}
	if sess == nil || !sess.IsNew {
		t.Error("expected a fresh session alongside the error")
	}
}

func TestStore_CookieLifetimeFollowsOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db, &gsessions.Options{Path: "/", MaxAge: 1, HttpOnly: true}, hashKey)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := store.Get(req, "bhangaar")
	sess.Values["access_token"] = "tok-1"
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cookie := rec.Result().Cookies()[0]
	if cookie.MaxAge != 1 {
		t.Errorf("cookie MaxAge = %d, want 1", cookie.MaxAge)
	}

	time.Sleep(2100 * time.Millisecond)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	again, err := store.Get(next, "bhangaar")
	if err == nil {
		t.Error("expected the signed timestamp to be rejected as expired")
	}
	if again == nil || !again.IsNew {
		t.Error("expected a fresh session for an expired cookie")
	}
}

func TestStore_RejectsNonStringValues(t *testing.T) {
	store := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := store.Get(req, "bhangaar")
	sess.Values["count"] = 3
	if err := store.Save(req, httptest.NewRecorder(), sess); err != sessions.ErrUnsupportedValue {
		t.Errorf("got %v", err)
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Can call multiple times without error
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes (second call) failed: %v", err)
	}
}
