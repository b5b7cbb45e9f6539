// Package model defines the entities managed by the console: users, nodes,
// inbounds, and the derived per-user configuration artifacts.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Protocol identifies the tunnelling protocol an inbound serves.
type Protocol string

// Supported inbound protocols.
const (
	ProtocolReality   Protocol = "reality"
	ProtocolWSTLS     Protocol = "ws-tls"
	ProtocolHysteria2 Protocol = "hysteria2"
)

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolReality, ProtocolWSTLS, ProtocolHysteria2:
		return true
	}
	return false
}

// Fingerprints accepted for uTLS impersonation on REALITY inbounds.
var Fingerprints = []string{"chrome", "firefox", "safari", "edge", "random"}

// User is a provisioned VPN user. Name is unique and immutable after
// creation; UUID is the secret identifier and may only change through the
// reset-uuid operation; DataUsed is server-maintained and only zeroed by
// reset-traffic.
type User struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	UUID      uuid.UUID  `json:"uuid"`
	Enabled   bool       `json:"enabled"`
	DataLimit int64      `json:"data_limit"` // bytes, 0 = unlimited
	DataUsed  int64      `json:"data_used"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Inbounds []Inbound `json:"inbounds,omitempty"`
}

// Node is a remote relay host running its own management agent. Online state
// is not part of the persisted entity; it is probed separately.
type Node struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	APIPort   int       `json:"api_port"`
	APIToken  string    `json:"api_token,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Inbounds []Inbound `json:"inbounds,omitempty"`
}

// Inbound is a protocol-specific listener bound to one node. NodeID and
// Protocol are immutable after creation. Fields past Enabled are
// protocol-conditional; which of them are meaningful is governed by the
// schema package.
type Inbound struct {
	ID         uint     `json:"id"`
	NodeID     uint     `json:"node_id"`
	Name       string   `json:"name"`
	Protocol   Protocol `json:"protocol"`
	ListenPort int      `json:"listen_port"`
	Enabled    bool     `json:"enabled"`

	// reality, ws-tls
	SNI string `json:"sni,omitempty"`

	// reality
	FallbackAddr string `json:"fallback_addr,omitempty"`
	FallbackPort int    `json:"fallback_port,omitempty"`
	PrivateKey   string `json:"private_key,omitempty"`
	PublicKey    string `json:"public_key,omitempty"`
	ShortID      string `json:"short_id,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`

	// ws-tls
	WSPath string `json:"ws_path,omitempty"`

	// hysteria2
	UpMbps   int `json:"up_mbps,omitempty"`
	DownMbps int `json:"down_mbps,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Node *Node `json:"node,omitempty"`
}

// RealityKeys is the key material returned by the generate-keys operation.
type RealityKeys struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	ShortID    string `json:"short_id"`
}

// ShareURL is one protocol-native connection string, tagged with the
// inbound and node it grants access to.
type ShareURL struct {
	InboundName string `json:"inbound_name"`
	NodeName    string `json:"node_name"`
	URL         string `json:"url"`
}

// UserConfig is the per-user distributable artifact. It is derived server
// side and goes stale the moment any attached inbound or node changes, so
// the console never caches it beyond the current view.
type UserConfig struct {
	Singbox  map[string]any `json:"singbox"`
	ShareURL string         `json:"share_url"`
	URLs     []ShareURL     `json:"share_urls"`
}

// AuthUser is the authenticated console operator identity.
type AuthUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// NodeStatus is a dashboard row describing one node's liveness and load.
type NodeStatus struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Online        bool   `json:"online"`
	UsersCount    int    `json:"users_count"`
	InboundsCount int    `json:"inbounds_count"`
}

// Stats aggregates fleet-wide counters for the dashboard.
type Stats struct {
	TotalUsers    int   `json:"total_users"`
	ActiveUsers   int   `json:"active_users"`
	TotalTraffic  int64 `json:"total_traffic"`
	TotalUpload   int64 `json:"total_upload"`
	TotalDownload int64 `json:"total_download"`
}

// TrafficPoint is one day of aggregated traffic for the dashboard chart.
type TrafficPoint struct {
	Date     string `json:"date"`
	Upload   int64  `json:"upload"`
	Download int64  `json:"download"`
}

// DashboardData is the dashboard summary in its complete (later) shape.
type DashboardData struct {
	Stats        Stats          `json:"stats"`
	Nodes        []NodeStatus   `json:"nodes"`
	TrafficChart []TrafficPoint `json:"traffic_chart"`
}
