package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zenvpn/zen-console/model"
)

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser returns one user with its attachment list.
func (c *Client) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser creates a user with an initial attachment set.
func (c *Client) CreateUser(ctx context.Context, in *model.CreateUserInput) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, "/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial overlay and returns the full updated entity.
func (c *Client) UpdateUser(ctx context.Context, id uint, in *model.UpdateUserInput) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user and all of its inbound attachments.
func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}

// SetUserEnabled flips only the enabled flag, as a partial update.
func (c *Client) SetUserEnabled(ctx context.Context, id uint, enabled bool) (*model.User, error) {
	var out model.User
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetUserUUID regenerates the user's secret identifier and returns the
// full updated entity.
func (c *Client) ResetUserUUID(ctx context.Context, id uint) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/reset-uuid", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetUserTraffic zeroes data_used and returns the full updated entity.
func (c *Client) ResetUserTraffic(ctx context.Context, id uint) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/reset-traffic", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserConfig fetches the user's current Config artifact. Callers must not
// reuse it across inbound or node mutations.
func (c *Client) GetUserConfig(ctx context.Context, id uint) (*model.UserConfig, error) {
	var out model.UserConfig
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/config", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
