package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"SNI":          "sni",
		"WSPath":       "ws_path",
		"ShortID":      "short_id",
		"FallbackAddr": "fallback_addr",
		"FallbackPort": "fallback_port",
		"APIPort":      "api_port",
		"APIToken":     "api_token",
		"UpMbps":       "up_mbps",
		"ListenPort":   "listen_port",
		"Name":         "name",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestErrorMessages(t *testing.T) {
	err := &Error{Field: "sni", Message: "is required"}
	assert.Equal(t, "sni: is required", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(assert.AnError))
}
