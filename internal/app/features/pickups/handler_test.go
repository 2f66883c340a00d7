package pickups_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/pickups"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/bhangaar/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *pickups.Handler {
	t.Helper()
	testutil.BootTemplates(t)
	logger := zap.NewNop()
	return pickups.NewHandler(uierrors.NewErrorLogger(logger), logger)
}

func postAction(s *testutil.Session, id, path string, form url.Values) *http.Request {
	req := testutil.NewFormRequest("/pickups/"+id+path, form)
	return s.Bind(testutil.WithChiURLParam(req, "id", id))
}

func seedFor(t *testing.T, s *testutil.Session, status models.Status, collector *string) models.Pickup {
	t.Helper()
	owner, _ := s.Backend.SeedUser(models.RoleHousehold, "Asha", "asha@test.com", "pw")
	return s.Backend.SeedPickup(models.Pickup{
		WasteType:   models.WasteDry,
		Location:    "Gate",
		Address:     "1 Main",
		UserID:      owner.ID,
		Status:      status,
		CollectorID: collector,
	})
}

func TestHandleStatus_CollectorAssigns(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleCollector)
	p := seedFor(t, s, models.StatusPending, nil)

	rec := testutil.NewRecorder()
	h.HandleStatus(rec, postAction(s, p.ID, "/status", url.Values{"action": {"assign"}}))

	rec.AssertRedirect(t, "/dashboard")
	got, _ := s.Backend.Pickup(p.ID)
	if got.Status != models.StatusAssigned || !got.AssignedTo(s.User.ID) {
		t.Errorf("pickup after assign: status=%s collector=%v", got.Status, got.CollectorID)
	}
	if msg := s.Ctrl.Snapshot().Messages.Success(s.Ctrl.Now()); msg != appstate.MsgPickupAssigned {
		t.Errorf("success = %q", msg)
	}
}

func TestHandleStatus_StartJourney(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleCollector)
	me := s.User.ID
	p := seedFor(t, s, models.StatusAssigned, &me)

	rec := testutil.NewRecorder()
	h.HandleStatus(rec, postAction(s, p.ID, "/status", url.Values{"action": {"start_journey"}}))

	rec.AssertRedirect(t, "/dashboard")
	if got, _ := s.Backend.Pickup(p.ID); got.Status != models.StatusOnTheWay {
		t.Errorf("status = %s, want on_the_way", got.Status)
	}
	last, ok := s.Backend.LastRequest(http.MethodPut, "/api/pickups/"+p.ID+"/status")
	if !ok || last.Query != "status=on_the_way" {
		t.Errorf("status request query = %q, want status=on_the_way", last.Query)
	}
}

func TestHandleStatus_BackendRefusalShowsDetail(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleCollector)
	other := "someone-else"
	p := seedFor(t, s, models.StatusAssigned, &other)

	rec := testutil.NewRecorder()
	h.HandleStatus(rec, postAction(s, p.ID, "/status", url.Values{"action": {"mark_collected"}}))

	rec.AssertRedirect(t, "/dashboard")
	if msg := s.Ctrl.Snapshot().Messages.Error(s.Ctrl.Now()); msg != "You can only update your assigned pickups" {
		t.Errorf("error = %q", msg)
	}
	if got, _ := s.Backend.Pickup(p.ID); got.Status != models.StatusAssigned {
		t.Errorf("status changed to %s", got.Status)
	}
}

func TestHandleStatus_UnknownAction(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleCollector)

	rec := testutil.NewRecorder()
	h.HandleStatus(rec, postAction(s, "p1", "/status", url.Values{"action": {"teleport"}}))

	rec.AssertStatus(t, http.StatusBadRequest)
	if n := s.Backend.Count(http.MethodPut, "/api/pickups/p1/status"); n != 0 {
		t.Errorf("backend status calls = %d, want 0", n)
	}
}

func TestHandleAssign(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleCollector)
	p := seedFor(t, s, models.StatusPending, nil)

	rec := testutil.NewRecorder()
	h.HandleAssign(rec, postAction(s, p.ID, "/assign", nil))

	rec.AssertRedirect(t, "/dashboard")
	if got, _ := s.Backend.Pickup(p.ID); got.Status != models.StatusAssigned {
		t.Errorf("status = %s, want assigned", got.Status)
	}
}

func TestHandleRate_SavesRating(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)
	p := s.Backend.SeedPickup(models.Pickup{
		WasteType: models.WasteWet, Location: "Gate", Address: "1 Main",
		UserID: s.User.ID, Status: models.StatusCollected,
	})
	s.Ctrl.RefreshPickups(context.Background())

	rec := testutil.NewRecorder()
	h.HandleRate(rec, postAction(s, p.ID, "/rate", url.Values{"rating": {"4"}, "feedback": {"On time"}}))

	rec.AssertRedirect(t, "/dashboard")
	got, _ := s.Backend.Pickup(p.ID)
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("rating = %v, want 4", got.Rating)
	}
	if got.Feedback == nil || *got.Feedback != "On time" {
		t.Errorf("feedback = %v", got.Feedback)
	}
	if msg := s.Ctrl.Snapshot().Messages.Success(s.Ctrl.Now()); msg != appstate.MsgRatingSaved {
		t.Errorf("success = %q", msg)
	}
}

func TestHandleRate_OutOfRange(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleHousehold)

	for _, rating := range []string{"0", "6", "abc"} {
		rec := testutil.NewRecorder()
		h.HandleRate(rec, postAction(s, "p1", "/rate", url.Values{"rating": {rating}}))
		rec.AssertRedirect(t, "/dashboard")
	}
	if n := s.Backend.Count(http.MethodPost, "/api/pickups/p1/rate"); n != 0 {
		t.Errorf("backend rate calls = %d, want 0", n)
	}
	if msg := s.Ctrl.Snapshot().Messages.Error(s.Ctrl.Now()); msg != "Rating must be between 1 and 5." {
		t.Errorf("error = %q", msg)
	}
}

func TestActions_SignedOutGoToLogin(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSession(t)

	rec := testutil.NewRecorder()
	h.HandleAssign(rec, postAction(s, "p1", "/assign", nil))

	rec.AssertRedirect(t, "/login")
}

func TestServeIndex_AliasesDashboard(t *testing.T) {
	h := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeIndex(rec, testutil.NewRequest(http.MethodGet, "/pickups"))

	rec.AssertRedirect(t, "/dashboard")
}
