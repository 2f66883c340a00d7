// internal/app/backend/chat.go
package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

func chatPath(pickupID string) string {
	return "/api/chat/" + url.PathEscape(pickupID)
}

// ChatMessages returns the thread for a pickup, oldest first.
func (c *Client) ChatMessages(ctx context.Context, token, pickupID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	if err := c.do(ctx, call{method: http.MethodGet, path: chatPath(pickupID), token: token, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ChatMessage{}
	}
	return out, nil
}

// SendChatMessage posts a message to a pickup's thread and returns its id.
func (c *Client) SendChatMessage(ctx context.Context, token, pickupID, message string) (string, error) {
	var out struct {
		MessageID string `json:"message_id"`
	}
	q := url.Values{"message": {message}}
	err := c.do(ctx, call{method: http.MethodPost, path: chatPath(pickupID), query: q, token: token, out: &out})
	return out.MessageID, err
}
