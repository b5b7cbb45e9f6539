package schema

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a field-level validation failure raised before any payload
// reaches the wire.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a schema validation error.
func IsValidation(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// wrapValidation converts a validator error into a schema Error carrying the
// first failing field, with the json-style field name.
func wrapValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Message: err.Error()}
	}
	fe := verrs[0]
	field := snakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return &Error{Field: field, Message: "is required"}
	case "min":
		return &Error{Field: field, Message: "must be at least " + fe.Param()}
	case "max":
		if fe.Kind().String() == "string" {
			return &Error{Field: field, Message: "must be at most " + fe.Param() + " characters"}
		}
		return &Error{Field: field, Message: "must be at most " + fe.Param()}
	case "len":
		return &Error{Field: field, Message: "must be exactly " + fe.Param() + " characters"}
	case "startswith":
		return &Error{Field: field, Message: "must start with " + fe.Param()}
	case "fingerprint":
		return &Error{Field: field, Message: "unknown fingerprint"}
	default:
		return &Error{Field: field, Message: "failed " + fe.Tag() + " check"}
	}
}

func snakeCase(name string) string {
	// Struct field names here are short initialisms or CamelCase pairs; a
	// simple transform covers them (SNI -> sni, FallbackPort -> fallback_port).
	var b strings.Builder
	prevUpper := true
	for i, r := range name {
		upper := r >= 'A' && r <= 'Z'
		nextLower := false
		if i+1 < len(name) {
			n := name[i+1]
			nextLower = n >= 'a' && n <= 'z'
		}
		if upper && i > 0 && (!prevUpper || nextLower) {
			b.WriteByte('_')
		}
		if upper {
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
		prevUpper = upper
	}
	return b.String()
}
