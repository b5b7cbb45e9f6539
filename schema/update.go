package schema

import (
	"github.com/zenvpn/zen-console/model"
)

// InboundUpdate is a partial overlay for an existing inbound. Protocol is
// immutable and never part of the payload; node_id, equally immutable, still
// accompanies every submission. The variant pointer, when set, must match the
// protocol of the inbound being updated and is sent whole (variant fields
// travel together, like the form submits them).
type InboundUpdate struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=255"`
	ListenPort *int    `json:"listen_port,omitempty" validate:"omitempty,min=1,max=65535"`
	Enabled    *bool   `json:"enabled,omitempty"`

	Reality   *RealitySettings   `json:"-"`
	WSTLS     *WSTLSSettings     `json:"-"`
	Hysteria2 *Hysteria2Settings `json:"-"`
}

// Payload assembles the update submission for an inbound of the given
// protocol on the given node. node_id is always present; beyond it, only
// overlay fields that are set appear, and variant fields for any other
// protocol are rejected.
func (u *InboundUpdate) Payload(protocol model.Protocol, nodeID uint) (map[string]any, error) {
	if !protocol.Valid() {
		return nil, &Error{Field: "protocol", Message: "unknown protocol " + string(protocol)}
	}
	if err := validate.Struct(u); err != nil {
		return nil, wrapValidation(err)
	}

	p := map[string]any{"node_id": nodeID}
	if u.Name != nil {
		p["name"] = *u.Name
	}
	if u.ListenPort != nil {
		p["listen_port"] = *u.ListenPort
	}
	if u.Enabled != nil {
		p["enabled"] = *u.Enabled
	}

	variants := 0
	if u.Reality != nil {
		variants++
		if protocol != model.ProtocolReality {
			return nil, &Error{Field: "protocol", Message: "reality settings on a " + string(protocol) + " inbound"}
		}
		if err := validate.Struct(u.Reality); err != nil {
			return nil, wrapValidation(err)
		}
		p["sni"] = u.Reality.SNI
		p["fallback_addr"] = u.Reality.FallbackAddr
		p["fallback_port"] = u.Reality.FallbackPort
		p["private_key"] = u.Reality.PrivateKey
		p["public_key"] = u.Reality.PublicKey
		p["short_id"] = u.Reality.ShortID
		p["fingerprint"] = u.Reality.Fingerprint
	}
	if u.WSTLS != nil {
		variants++
		if protocol != model.ProtocolWSTLS {
			return nil, &Error{Field: "protocol", Message: "ws-tls settings on a " + string(protocol) + " inbound"}
		}
		if err := validate.Struct(u.WSTLS); err != nil {
			return nil, wrapValidation(err)
		}
		p["sni"] = u.WSTLS.SNI
		p["ws_path"] = u.WSTLS.WSPath
	}
	if u.Hysteria2 != nil {
		variants++
		if protocol != model.ProtocolHysteria2 {
			return nil, &Error{Field: "protocol", Message: "hysteria2 settings on a " + string(protocol) + " inbound"}
		}
		if err := validate.Struct(u.Hysteria2); err != nil {
			return nil, wrapValidation(err)
		}
		p["up_mbps"] = u.Hysteria2.UpMbps
		p["down_mbps"] = u.Hysteria2.DownMbps
	}
	if variants > 1 {
		return nil, &Error{Field: "protocol", Message: "at most one settings variant allowed"}
	}
	return p, nil
}

// ValidateUser checks a user creation input.
func ValidateUser(in *model.CreateUserInput) error {
	if err := validate.Struct(in); err != nil {
		return wrapValidation(err)
	}
	return nil
}

// ValidateUserUpdate checks a user partial update.
func ValidateUserUpdate(in *model.UpdateUserInput) error {
	if err := validate.Struct(in); err != nil {
		return wrapValidation(err)
	}
	return nil
}

// ValidateNode checks a node creation input.
func ValidateNode(in *model.CreateNodeInput) error {
	if err := validate.Struct(in); err != nil {
		return wrapValidation(err)
	}
	return nil
}

// ValidateNodeUpdate checks a node partial update.
func ValidateNodeUpdate(in *model.UpdateNodeInput) error {
	if err := validate.Struct(in); err != nil {
		return wrapValidation(err)
	}
	return nil
}
