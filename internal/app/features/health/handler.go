package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/bhangaar/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackendChecker reports whether the REST backend answers.
type BackendChecker interface {
	Health(ctx context.Context) error
}

// StorePinger reports whether the server-side session store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Backend BackendChecker
	Store   StorePinger // nil when sessions live in the cookie
	Log     *zap.Logger
}

// NewHandler constructs a health Handler. store may be nil.
func NewHandler(backend BackendChecker, store StorePinger, logger *zap.Logger) *Handler {
	return &Handler{
		Backend: backend,
		Store:   store,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status       string `json:"status"`
	Backend      string `json:"backend"`
	SessionStore string `json:"session_store"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"connected", "session_store":"cookie" }
//
// When the backend or the session store is down: 503 and
//
//	{ "status":"error", "backend":"disconnected", "message":"Backend unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:       "ok",
		Backend:      "connected",
		SessionStore: "cookie",
	}

	var backendErr, storeErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		backendErr = h.Backend.Health(gctx)
		return nil
	})
	if h.Store != nil {
		resp.SessionStore = "connected"
		g.Go(func() error {
			storeErr = h.Store.Ping(gctx)
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	if storeErr != nil {
		h.Log.Error("health-check: session store ping failed", zap.Error(storeErr))
		status = http.StatusServiceUnavailable
		resp.Status = "error"
		resp.SessionStore = "disconnected"
		resp.Message = "Session store unavailable"
		resp.Error = storeErr.Error()
	}
	if backendErr != nil {
		h.Log.Error("health-check: backend ping failed", zap.Error(backendErr))
		status = http.StatusServiceUnavailable
		resp.Status = "error"
		resp.Backend = "disconnected"
		resp.Message = "Backend unavailable"
		resp.Error = backendErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
