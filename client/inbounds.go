package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zenvpn/zen-console/model"
)

// ListInboundsByNode returns all inbounds scoped to one node.
func (c *Client) ListInboundsByNode(ctx context.Context, nodeID uint) ([]model.Inbound, error) {
	var out []model.Inbound
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nodes/%d/inbounds", nodeID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInbound creates an inbound from an already-assembled schema payload.
// The payload carries node_id and only the fields legal for its protocol;
// use schema.InboundInput to build it.
func (c *Client) CreateInbound(ctx context.Context, nodeID uint, payload map[string]any) (*model.Inbound, error) {
	var out model.Inbound
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%d/inbounds", nodeID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInbound applies a schema-assembled partial overlay.
func (c *Client) UpdateInbound(ctx context.Context, id uint, payload map[string]any) (*model.Inbound, error) {
	var out model.Inbound
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/inbounds/%d", id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInbound removes an inbound.
func (c *Client) DeleteInbound(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/inbounds/%d", id), nil, nil)
}

// GenerateInboundKeys asks the server for a fresh REALITY key triple. The
// inbound must already exist; key material is never derived client side.
func (c *Client) GenerateInboundKeys(ctx context.Context, id uint) (*model.RealityKeys, error) {
	var out model.RealityKeys
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/inbounds/%d/generate-keys", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDashboard returns the fleet summary.
func (c *Client) GetDashboard(ctx context.Context) (*model.DashboardData, error) {
	var out model.DashboardData
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
