package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable reports a backend that answered with something other
// than a model response (proxy error page, refused connection).
type ErrModelUnavailable struct {
	Provider string
	Body     string
	Cause    error
}

func (e *ErrModelUnavailable) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Cause)
	case e.Body != "":
		return fmt.Sprintf("%s unavailable: %s", e.Provider, e.Body)
	default:
		return e.Provider + " unavailable"
	}
}

func (e *ErrModelUnavailable) Unwrap() error {
	return e.Cause
}

// errorClasses is checked in order; the first class with a matching marker
// labels the error.
var errorClasses = []struct {
	label   string
	markers []string
}{
	{"authentication failed", []string{"401", "403", "unauthorized", "api key", "forbidden"}},
	{"rate limited", []string{"429", "rate limit", "quota", "too many requests"}},
	{"context too long", []string{"context length", "too many tokens", "max tokens", "token limit"}},
	{"model not found", []string{"404", "not found"}},
	{"connection error", []string{"connection", "eof", "timeout", "dial", "refused"}},
}

// HandleError prefixes provider SDK errors with a short label a user can act
// on. The original error stays reachable through errors.Is and errors.As.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var unavail *ErrModelUnavailable
	if errors.As(err, &unavail) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, class := range errorClasses {
		for _, m := range class.markers {
			if strings.Contains(msg, m) {
				return fmt.Errorf("%s: %w", class.label, err)
			}
		}
	}
	return err
}
