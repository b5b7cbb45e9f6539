package schema

import "github.com/zenvpn/zen-console/model"

// FieldKind describes how a field value is entered and checked.
type FieldKind int

// Field kinds.
const (
	KindString FieldKind = iota
	KindInt
	KindBool
	KindEnum
)

// Field describes one inbound form field for a given protocol.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	Min      int // numeric lower bound, when Kind is KindInt
	Max      int // numeric upper bound, when Kind is KindInt
	MaxLen   int // string length cap, when Kind is KindString
	Enum     []string
	Default  any
}

var commonFields = []Field{
	{Name: "name", Kind: KindString, Required: true, MaxLen: 255},
	{Name: "listen_port", Kind: KindInt, Required: true, Min: 1, Max: 65535, Default: 443},
	{Name: "enabled", Kind: KindBool, Default: true},
}

var protocolFields = map[model.Protocol][]Field{
	model.ProtocolReality: {
		{Name: "sni", Kind: KindString, Required: true, MaxLen: 255},
		{Name: "fallback_addr", Kind: KindString, MaxLen: 255, Default: "127.0.0.1"},
		{Name: "fallback_port", Kind: KindInt, Min: 1, Max: 65535, Default: 8443},
		{Name: "private_key", Kind: KindString, MaxLen: 255},
		{Name: "public_key", Kind: KindString, MaxLen: 255},
		{Name: "short_id", Kind: KindString, MaxLen: 16},
		{Name: "fingerprint", Kind: KindEnum, Enum: model.Fingerprints, Default: "chrome"},
	},
	model.ProtocolWSTLS: {
		{Name: "sni", Kind: KindString, Required: true, MaxLen: 255},
		{Name: "ws_path", Kind: KindString, Required: true, MaxLen: 255, Default: "/ws"},
	},
	model.ProtocolHysteria2: {
		{Name: "up_mbps", Kind: KindInt, Required: true, Min: 1, Default: 100},
		{Name: "down_mbps", Kind: KindInt, Required: true, Min: 1, Default: 100},
	},
}

// Fields returns the ordered field list for protocol: the common fields
// followed by the protocol-specific ones. Nil for an unknown protocol.
func Fields(protocol model.Protocol) []Field {
	specific, ok := protocolFields[protocol]
	if !ok {
		return nil
	}
	out := make([]Field, 0, len(commonFields)+len(specific))
	out = append(out, commonFields...)
	out = append(out, specific...)
	return out
}
