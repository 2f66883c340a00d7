// internal/app/backend/auth.go
package backend

import (
	"context"
	"net/http"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Address  string `json:"address,omitempty"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both login and registration.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/register", body: in, out: &out})
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, in LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/login", body: in, out: &out})
	return out, err
}
