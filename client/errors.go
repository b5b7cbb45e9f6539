package client

import (
	"errors"
	"fmt"
)

// Kind classifies a normalized API error.
type Kind int

// Error kinds. Auth errors additionally tear down the session before they
// are returned to the caller.
const (
	KindTransient Kind = iota
	KindAuth
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not-found"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// Error is the single normalized failure shape for every remote call. The
// message is whichever human-readable text the server provided.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 for transport failures
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
}

func kindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { k, ok := kindOf(err); return ok && k == KindAuth }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { k, ok := kindOf(err); return ok && k == KindNotFound }

// IsValidation reports whether err is a server-side validation failure.
func IsValidation(err error) bool { k, ok := kindOf(err); return ok && k == KindValidation }

// IsConflict reports whether err is a conflict failure.
func IsConflict(err error) bool { k, ok := kindOf(err); return ok && k == KindConflict }
