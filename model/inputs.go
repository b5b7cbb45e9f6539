package model

import "time"

// CreateUserInput carries the fields accepted when creating a user.
type CreateUserInput struct {
	Name       string     `json:"name" validate:"required,max=255"`
	Enabled    bool       `json:"enabled"`
	DataLimit  int64      `json:"data_limit" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at"`
	InboundIDs []uint     `json:"inbound_ids"`
}

// UpdateUserInput is a strict subset overlay: only non-nil fields are sent.
// Name is immutable after creation and therefore absent here.
type UpdateUserInput struct {
	Enabled    *bool      `json:"enabled,omitempty"`
	DataLimit  *int64     `json:"data_limit,omitempty" validate:"omitempty,gte=0"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	InboundIDs *[]uint    `json:"inbound_ids,omitempty"`
}

// CreateNodeInput carries the fields accepted when creating a node.
type CreateNodeInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Address  string `json:"address" validate:"required,max=255"`
	APIPort  int    `json:"api_port" validate:"required,min=1,max=65535"`
	APIToken string `json:"api_token" validate:"required,len=32,alphanum"`
	Enabled  bool   `json:"enabled"`
}

// UpdateNodeInput is a partial overlay for node updates.
type UpdateNodeInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=255"`
	APIPort  *int    `json:"api_port,omitempty" validate:"omitempty,min=1,max=65535"`
	APIToken *string `json:"api_token,omitempty" validate:"omitempty,len=32,alphanum"`
	Enabled  *bool   `json:"enabled,omitempty"`
}
