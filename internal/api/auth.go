package api

import (
	"context"
	"net/http"

	"github.com/lexai/koma/internal/model"
)

// AuthAPI is the contract the session layer depends on. Kept as an
// interface so session tests can swap in a mock.
type AuthAPI interface {
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Signup(ctx context.Context, profile model.SignupProfile) (*AuthResult, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, token string) error
}

// AuthResult is the response to a successful login or signup. User may be
// absent; the session layer then fetches it separately.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// AuthClient talks to the external auth service.
type AuthClient struct {
	*Client
}

func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{Client: client}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (c *AuthClient) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{
		Identifier: identifier,
		Password:   password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AuthClient) Signup(ctx context.Context, profile model.SignupProfile) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", profile, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AuthClient) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *AuthClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *AuthClient) DeleteAccount(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/auth/account", token, nil, nil)
}
