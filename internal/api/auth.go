// Package api wraps the backend microservices' REST contracts in typed
// clients. All requests go through one transport.Client so token handling
// stays in a single place.
package api

import (
	"context"

	"github.com/example/ride-agent/internal/transport"
)

type Auth struct {
	t *transport.Client
}

func NewAuth(t *transport.Client) *Auth { return &Auth{t: t} }

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
}

func (a *Auth) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.t.Post(ctx, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.t.Post(ctx, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
