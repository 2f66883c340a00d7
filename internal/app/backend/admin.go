// internal/app/backend/admin.go
package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// AdminUsers lists every account. Admin tokens only.
func (c *Client) AdminUsers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/admin/users", token: token, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.User{}
	}
	return out, nil
}

// ToggleUser flips an account between active and inactive and returns the
// backend's confirmation text.
func (c *Client) ToggleUser(ctx context.Context, token, userID string) (string, error) {
	var out ackResponse
	path := "/api/admin/users/" + url.PathEscape(userID) + "/toggle"
	err := c.do(ctx, call{method: http.MethodPut, path: path, token: token, out: &out})
	return out.Message, err
}
