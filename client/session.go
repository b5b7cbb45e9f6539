package client

import (
	"context"
	"net/http"

	"github.com/zenvpn/zen-console/model"
)

// LoginResult is the credential and identity returned by a successful login.
type LoginResult struct {
	Token string         `json:"token"`
	Admin model.AuthUser `json:"admin"`
}

// Login exchanges operator credentials for a session token. The current
// token, if any, is not attached.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the session server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Whoami returns the identity behind the current credential.
func (c *Client) Whoami(ctx context.Context) (*model.AuthUser, error) {
	var out model.AuthUser
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the operator password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change-password", body, nil)
}
