// internal/app/backend/pickups.go
package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// CreatePickupRequest is the body of POST /api/pickups. PickupDate is an
// ISO-8601 datetime combining the form's date and time fields.
type CreatePickupRequest struct {
	WasteType  models.WasteType `json:"waste_type"`
	PickupDate string           `json:"pickup_date"`
	PickupTime string           `json:"pickup_time"`
	Location   string           `json:"location"`
	Address    string           `json:"address"`
	PhotoURL   *string          `json:"photo_url,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// CreatePickupResponse accepts both shapes the backend has used: an
// acknowledgement with pickup_id, or the created record with id.
type CreatePickupResponse struct {
	Message  string `json:"message,omitempty"`
	PickupID string `json:"pickup_id,omitempty"`
	ID       string `json:"id,omitempty"`
}

// CreatedID returns whichever id field the backend filled.
func (r CreatePickupResponse) CreatedID() string {
	if r.PickupID != "" {
		return r.PickupID
	}
	return r.ID
}

type ackResponse struct {
	Message string `json:"message"`
}

func pickupPath(id string, suffix string) string {
	return "/api/pickups/" + url.PathEscape(id) + suffix
}

// Pickups lists the pickups visible to the token's user. The backend scopes
// the list by role.
func (c *Client) Pickups(ctx context.Context, token string) ([]models.Pickup, error) {
	var out []models.Pickup
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/pickups", token: token, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Pickup{}
	}
	return out, nil
}

// UserStats returns the role-shaped stats for the token's user.
func (c *Client) UserStats(ctx context.Context, token string) (models.Stats, error) {
	out := models.Stats{}
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/stats/user", token: token, out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePickup submits a new pickup request.
func (c *Client) CreatePickup(ctx context.Context, token string, in CreatePickupRequest) (CreatePickupResponse, error) {
	var out CreatePickupResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/pickups", token: token, body: in, out: &out})
	return out, err
}

// UpdatePickupStatus asks the backend to move a pickup to status.
func (c *Client) UpdatePickupStatus(ctx context.Context, token, id string, status models.Status) error {
	q := url.Values{"status": {string(status)}}
	return c.do(ctx, call{method: http.MethodPut, path: pickupPath(id, "/status"), query: q, token: token, out: &ackResponse{}})
}

// AssignPickup claims a pending pickup for the token's user.
func (c *Client) AssignPickup(ctx context.Context, token, id string) error {
	return c.do(ctx, call{method: http.MethodPut, path: pickupPath(id, "/assign"), token: token, out: &ackResponse{}})
}

// RatePickup records the requester's rating (1..5) and optional feedback on
// a collected pickup.
func (c *Client) RatePickup(ctx context.Context, token, id string, rating int, feedback string) error {
	q := url.Values{"rating": {strconv.Itoa(rating)}}
	if feedback != "" {
		q.Set("feedback", feedback)
	}
	return c.do(ctx, call{method: http.MethodPost, path: pickupPath(id, "/rate"), query: q, token: token, out: &ackResponse{}})
}
