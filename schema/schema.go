// Package schema defines the protocol-variant field sets for inbounds: which
// fields each protocol accepts, their validation rules, their defaults, and
// how a submission payload is assembled. A payload may only ever carry the
// fields of its own protocol; schema construction makes the illegal-field
// case unrepresentable.
package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/util/random"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("fingerprint", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		for _, fp := range model.Fingerprints {
			if v == fp {
				return true
			}
		}
		return false
	})
}

// RealitySettings are the fields legal for the reality protocol.
type RealitySettings struct {
	SNI          string `json:"sni" validate:"required,max=255"`
	FallbackAddr string `json:"fallback_addr" validate:"max=255"`
	FallbackPort int    `json:"fallback_port" validate:"omitempty,min=1,max=65535"`
	PrivateKey   string `json:"private_key" validate:"max=255"`
	PublicKey    string `json:"public_key" validate:"max=255"`
	ShortID      string `json:"short_id" validate:"max=16"`
	Fingerprint  string `json:"fingerprint" validate:"fingerprint"`
}

// WSTLSSettings are the fields legal for the ws-tls protocol.
type WSTLSSettings struct {
	SNI    string `json:"sni" validate:"required,max=255"`
	WSPath string `json:"ws_path" validate:"required,max=255,startswith=/"`
}

// Hysteria2Settings are the fields legal for the hysteria2 protocol.
type Hysteria2Settings struct {
	UpMbps   int `json:"up_mbps" validate:"required,min=1"`
	DownMbps int `json:"down_mbps" validate:"required,min=1"`
}

// InboundInput is a new-inbound submission: the common fields plus exactly
// one settings variant, which must match Protocol.
type InboundInput struct {
	NodeID     uint           `json:"node_id" validate:"required"`
	Name       string         `json:"name" validate:"required,max=255"`
	Protocol   model.Protocol `json:"protocol"`
	ListenPort int            `json:"listen_port" validate:"required,min=1,max=65535"`
	Enabled    bool           `json:"enabled"`

	Reality   *RealitySettings   `json:"-"`
	WSTLS     *WSTLSSettings     `json:"-"`
	Hysteria2 *Hysteria2Settings `json:"-"`
}

// Defaults returns a new-inbound input pre-filled the way the console
// pre-fills its form for the given protocol.
func Defaults(nodeID uint, protocol model.Protocol) InboundInput {
	in := InboundInput{
		NodeID:     nodeID,
		Protocol:   protocol,
		ListenPort: 443,
		Enabled:    true,
	}
	switch protocol {
	case model.ProtocolReality:
		in.Reality = &RealitySettings{
			FallbackAddr: "127.0.0.1",
			FallbackPort: 8443,
			Fingerprint:  "chrome",
		}
	case model.ProtocolWSTLS:
		in.WSTLS = &WSTLSSettings{WSPath: "/ws"}
	case model.ProtocolHysteria2:
		in.Hysteria2 = &Hysteria2Settings{UpMbps: 100, DownMbps: 100}
	}
	return in
}

// SwitchProtocol returns a copy of in retargeted at a different protocol.
// Fields of the previous protocol are discarded, never carried over; only
// usable before first save, since protocol is immutable once created.
func SwitchProtocol(in InboundInput, protocol model.Protocol) InboundInput {
	out := Defaults(in.NodeID, protocol)
	out.Name = in.Name
	out.ListenPort = in.ListenPort
	out.Enabled = in.Enabled
	return out
}

func (in *InboundInput) settings() (any, error) {
	var active any
	count := 0
	if in.Reality != nil {
		active, count = in.Reality, count+1
		if in.Protocol != model.ProtocolReality {
			return nil, &Error{Field: "protocol", Message: "reality settings on a " + string(in.Protocol) + " inbound"}
		}
	}
	if in.WSTLS != nil {
		active, count = in.WSTLS, count+1
		if in.Protocol != model.ProtocolWSTLS {
			return nil, &Error{Field: "protocol", Message: "ws-tls settings on a " + string(in.Protocol) + " inbound"}
		}
	}
	if in.Hysteria2 != nil {
		active, count = in.Hysteria2, count+1
		if in.Protocol != model.ProtocolHysteria2 {
			return nil, &Error{Field: "protocol", Message: "hysteria2 settings on a " + string(in.Protocol) + " inbound"}
		}
	}
	if count != 1 {
		return nil, &Error{Field: "protocol", Message: fmt.Sprintf("exactly one settings variant required, got %d", count)}
	}
	return active, nil
}

// Validate checks in against the protocol's field rules.
func (in *InboundInput) Validate() error {
	if !in.Protocol.Valid() {
		return &Error{Field: "protocol", Message: "unknown protocol " + string(in.Protocol)}
	}
	if err := validate.Struct(in); err != nil {
		return wrapValidation(err)
	}
	settings, err := in.settings()
	if err != nil {
		return err
	}
	if err := validate.Struct(settings); err != nil {
		return wrapValidation(err)
	}
	return nil
}

// Payload assembles the create submission: node_id, the common fields, and
// the active variant's fields exclusively.
func (in *InboundInput) Payload() (map[string]any, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := map[string]any{
		"node_id":     in.NodeID,
		"name":        in.Name,
		"protocol":    in.Protocol,
		"listen_port": in.ListenPort,
		"enabled":     in.Enabled,
	}
	switch in.Protocol {
	case model.ProtocolReality:
		s := in.Reality
		p["sni"] = s.SNI
		p["fallback_addr"] = s.FallbackAddr
		p["fallback_port"] = s.FallbackPort
		p["private_key"] = s.PrivateKey
		p["public_key"] = s.PublicKey
		p["short_id"] = s.ShortID
		p["fingerprint"] = s.Fingerprint
	case model.ProtocolWSTLS:
		s := in.WSTLS
		p["sni"] = s.SNI
		p["ws_path"] = s.WSPath
	case model.ProtocolHysteria2:
		s := in.Hysteria2
		p["up_mbps"] = s.UpMbps
		p["down_mbps"] = s.DownMbps
	}
	return p, nil
}

// NewAPIToken generates the 32-character alphanumeric secret a node's
// management agent expects.
func NewAPIToken() string {
	return random.Seq(32)
}
