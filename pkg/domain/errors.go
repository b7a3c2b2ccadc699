package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIdentityNotFound reports an entity without a resolvable identity.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrTypeMismatch is matched by every TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedProvider reports an unknown provider type at selection time.
	ErrUnsupportedProvider = errors.New("unsupported provider type")
	// ErrNilEntity reports a nil entity passed to a staging operation.
	ErrNilEntity = errors.New("entity cannot be nil")
	// ErrNotImplemented reports an operation a provider does not support.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownKind reports a kind missing from a Registry.
	ErrUnknownKind = errors.New("unknown kind")
)

// ValidationError carries every message returned by a Validatable entity.
type ValidationError struct {
	Kind     Kind
	ID       any
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v: validation failed: %s", e.Kind, e.ID, strings.Join(e.Messages, "; "))
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// TypeMismatchError is returned when a value would change the kind or Go type
// held for an identity. WantType and GotType name the Go types when known.
type TypeMismatchError struct {
	Want     Kind
	Got      Kind
	WantType string
	GotType  string
}

func (e TypeMismatchError) Error() string {
	if e.WantType == "" && e.GotType == "" {
		return fmt.Sprintf("type mismatch: record holds %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("type mismatch: record holds %s (%s), got %s (%s)", e.Want, e.WantType, e.Got, e.GotType)
}

// Is reports whether target is ErrTypeMismatch.
func (e TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ValidationMessages flattens the messages of every *ValidationError in err.
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve.Messages...)
		}
	}
	walk(err)
	return out
}
