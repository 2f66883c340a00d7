package chat_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/dalemusser/bhangaar/internal/app/features/chat"
	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/bhangaar/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *chat.Handler {
	t.Helper()
	testutil.BootTemplates(t)
	logger := zap.NewNop()
	return chat.NewHandler(uierrors.NewErrorLogger(logger), logger)
}

// seedOwnPickup stores a pending pickup requested by the session's user.
func seedOwnPickup(s *testutil.Session) models.Pickup {
	return s.Backend.SeedPickup(models.Pickup{
		WasteType: models.WasteDry,
		Location:  "Sector 5",
		Address:   "12 Lake Road",
		UserID:    s.User.ID,
	})
}

func TestServeThread_RendersMessages(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)
	p := seedOwnPickup(s)
	s.Ctrl.RefreshPickups(context.Background())

	send := testutil.NewFormRequest("/chat/"+p.ID, url.Values{"message": {"Is 5pm fine?"}})
	send = s.Bind(testutil.WithChiURLParam(send, "id", p.ID))
	h.HandleSend(testutil.NewRecorder(), send)

	req := s.Bind(testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/chat/"+p.ID), "id", p.ID))
	rec := testutil.NewRecorder()
	h.ServeThread(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Is 5pm fine?")
	rec.AssertContains(t, "Sector 5")
	if s.Ctrl.View() != appstate.ViewChat {
		t.Errorf("view = %q, want chat", s.Ctrl.View())
	}
}

func TestServeThread_NotInvolvedGoesToDashboard(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)
	other, _ := s.Backend.SeedUser(models.RoleHousehold, "Someone Else", "else@test.com", "pw")
	p := s.Backend.SeedPickup(models.Pickup{WasteType: models.WasteWet, Location: "Elsewhere", UserID: other.ID})

	req := s.Bind(testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/chat/"+p.ID), "id", p.ID))
	rec := testutil.NewRecorder()
	h.ServeThread(rec, req)

	rec.AssertRedirect(t, "/dashboard")
	st := s.Ctrl.Snapshot()
	if st.Messages.Error(s.Ctrl.Now()) == "" {
		t.Error("expected the backend's refusal to be shown")
	}
	if st.View != appstate.ViewDashboard {
		t.Errorf("view = %q, want dashboard", st.View)
	}
}

func TestHandleSend_PostsAndRedirects(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)
	p := seedOwnPickup(s)

	req := testutil.NewFormRequest("/chat/"+p.ID, url.Values{"message": {"hello"}})
	req = s.Bind(testutil.WithChiURLParam(req, "id", p.ID))
	rec := testutil.NewRecorder()
	h.HandleSend(rec, req)

	rec.AssertRedirect(t, "/chat/"+p.ID)
	if n := s.Backend.Count(http.MethodPost, "/api/chat/"+p.ID); n != 1 {
		t.Errorf("backend chat posts = %d, want 1", n)
	}
	if got := len(s.Ctrl.Snapshot().Chat); got != 1 {
		t.Errorf("thread length = %d, want 1", got)
	}
}

func TestHandleSend_EmptyMessageNeverReachesBackend(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)
	p := seedOwnPickup(s)

	req := testutil.NewFormRequest("/chat/"+p.ID, url.Values{"message": {"   "}})
	req = s.Bind(testutil.WithChiURLParam(req, "id", p.ID))
	rec := testutil.NewRecorder()
	h.HandleSend(rec, req)

	rec.AssertRedirect(t, "/chat/"+p.ID)
	if n := s.Backend.Count(http.MethodPost, "/api/chat/"+p.ID); n != 0 {
		t.Errorf("backend chat posts = %d, want 0", n)
	}
	if got := s.Ctrl.Snapshot().Messages.Error(s.Ctrl.Now()); got != "Message cannot be empty." {
		t.Errorf("error = %q", got)
	}
}

func TestHandleSend_SignedOutGoesToLogin(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSession(t)

	req := testutil.NewFormRequest("/chat/p1", url.Values{"message": {"hi"}})
	req = s.Bind(testutil.WithChiURLParam(req, "id", "p1"))
	rec := testutil.NewRecorder()
	h.HandleSend(rec, req)

	rec.AssertRedirect(t, "/login")
}

func TestServeCurrent_WithoutThreadGoesToDashboard(t *testing.T) {
	h := newHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)

	rec := testutil.NewRecorder()
	h.ServeCurrent(rec, s.Bind(testutil.NewRequest(http.MethodGet, "/chat/")))

	rec.AssertRedirect(t, "/dashboard")
}
