// Package failure defines the closed set of errors a generation request can
// end with. Every error that reaches a user is one of these kinds.
package failure

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Configuration means a secret or data file is missing or invalid. Fatal at startup.
	Configuration Kind = iota + 1
	// Auth means the submitted password was wrong or no session was presented.
	Auth
	// RateLimit means the provider refused the request because of quota.
	RateLimit
	// Provider is any other completion or embedding failure.
	Provider
	// CapabilityUnavailable means the configured model cannot embed text.
	CapabilityUnavailable
	// EmptyInput means the user submitted blank text.
	EmptyInput
)

var kindNames = map[Kind]string{
	Configuration:         "ConfigurationError",
	Auth:                  "AuthError",
	RateLimit:             "RateLimitError",
	Provider:              "ProviderError",
	CapabilityUnavailable: "CapabilityUnavailable",
	EmptyInput:            "EmptyInputError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (kind Kind, ok bool) {
	var fe *Error
	if !errors.As(err, &fe) {
		return 0, false
	}
	return fe.Kind, true
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
