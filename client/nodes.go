package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zenvpn/zen-console/model"
)

// ListNodes returns all nodes.
func (c *Client) ListNodes(ctx context.Context) ([]model.Node, error) {
	var out []model.Node
	if err := c.do(ctx, http.MethodGet, "/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNode returns one node.
func (c *Client) GetNode(ctx context.Context, id uint) (*model.Node, error) {
	var out model.Node
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nodes/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNode registers a relay node.
func (c *Client) CreateNode(ctx context.Context, in *model.CreateNodeInput) (*model.Node, error) {
	var out model.Node
	if err := c.do(ctx, http.MethodPost, "/nodes", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNode applies a partial overlay and returns the full updated entity.
func (c *Client) UpdateNode(ctx context.Context, id uint, in *model.UpdateNodeInput) (*model.Node, error) {
	var out model.Node
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/nodes/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNode removes a node. The server cascades the deletion to every
// inbound on the node.
func (c *Client) DeleteNode(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/nodes/%d", id), nil, nil)
}

// GetNodeStatus probes the node's management agent for liveness.
func (c *Client) GetNodeStatus(ctx context.Context, id uint) (bool, error) {
	var out struct {
		Online bool `json:"online"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nodes/%d/status", id), nil, &out); err != nil {
		return false, err
	}
	return out.Online, nil
}

// SyncNode pushes the node's current inbound set to its remote agent.
// Idempotent, side-effecting, no body; the node and inbound records are not
// mutated.
func (c *Client) SyncNode(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%d/sync", id), nil, nil)
}
