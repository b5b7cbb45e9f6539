// Package singbox gives the console a typed view of the sing-box client
// configuration object inside a user's Config artifact. Sections the console
// never inspects stay as raw JSON; outbounds are decoded so the per-node
// proxy entries can be listed.
package singbox

import (
	json "github.com/goccy/go-json"

	"github.com/zenvpn/zen-console/util/json_util"
)

// ClientConfig is a sing-box client configuration.
type ClientConfig struct {
	Log       json_util.RawMessage `json:"log,omitempty"`
	DNS       json_util.RawMessage `json:"dns,omitempty"`
	Inbounds  json_util.RawMessage `json:"inbounds,omitempty"`
	Outbounds []Outbound           `json:"outbounds,omitempty"`
	Route     json_util.RawMessage `json:"route,omitempty"`
}

// Outbound is one outbound entry. Only the fields the console displays are
// typed; the full entry is preserved for serialization.
type Outbound struct {
	Type       string `json:"type"`
	Tag        string `json:"tag"`
	Server     string `json:"server,omitempty"`
	ServerPort int    `json:"server_port,omitempty"`

	raw json_util.RawMessage
}

// UnmarshalJSON decodes the display fields and keeps the raw entry.
func (o *Outbound) UnmarshalJSON(data []byte) error {
	type plain Outbound
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Outbound(p)
	o.raw = append(json_util.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the original entry back out unchanged.
func (o Outbound) MarshalJSON() ([]byte, error) {
	if len(o.raw) > 0 {
		return o.raw, nil
	}
	type plain Outbound
	return json.Marshal(plain(o))
}

// Parse decodes the artifact's singbox object.
func Parse(obj map[string]any) (*ClientConfig, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var cfg ClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProxyOutbounds returns the outbounds that carry traffic to a relay,
// skipping the plumbing entries (selector, direct, block, dns).
func (c *ClientConfig) ProxyOutbounds() []Outbound {
	var out []Outbound
	for _, o := range c.Outbounds {
		switch o.Type {
		case "selector", "urltest", "direct", "block", "dns":
			continue
		}
		out = append(out, o)
	}
	return out
}

// JSON serializes the config as indented JSON, ready to hand to a client.
func (c *ClientConfig) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
