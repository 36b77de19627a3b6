// Package errs provides types and support related to web v1 functionality.
package errs

import "errors"

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap gives access to the wrapped ledger error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// Rule pairs a ledger error with the status reported to the caller.
type Rule struct {
	Target error
	Status int
}

// Map wraps the error as trusted with the status of the first rule whose
// target is in the error chain. Errors that match no rule are returned as is
// and end up as an internal server error.
func Map(err error, rules ...Rule) error {
	if err == nil || IsTrusted(err) {
		return err
	}

	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			return NewTrusted(err, rule.Status)
		}
	}

	return err
}
