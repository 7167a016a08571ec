package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoConnection is returned when the request never got a response
	ErrNoConnection = errors.New("no connection to dictionary API")

	// ErrMalformedResponse is returned when a response body has an unexpected shape
	ErrMalformedResponse = errors.New("malformed dictionary API response")

	// ErrCancelled is returned when a lookup was superseded or the session closed
	ErrCancelled = errors.New("lookup cancelled")

	// ErrLanguagesUnavailable is returned when the language directory could not be loaded
	ErrLanguagesUnavailable = errors.New("languages unavailable")
)

// Status codes the dictionary API uses for rejected requests
const (
	CodeKeyInvalid         = 401
	CodeKeyBlocked         = 402
	CodeDailyLimitExceeded = 403
	CodeTextTooLong        = 413
	CodeUnprocessable      = 422
	CodeLangNotSupported   = 501
	CodeServiceUnavailable = 502
)

// ServerError is a non-2xx response from the dictionary API
type ServerError struct {
	Status  int
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dictionary API returned status %d (code %d)", e.Status, e.Code)
	}
	return fmt.Sprintf("dictionary API returned status %d (code %d): %s", e.Status, e.Code, e.Message)
}

// EffectiveCode returns the body code, falling back to the HTTP status
func (e *ServerError) EffectiveCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.Status
}

// ErrorCategory is the user-facing classification of a lookup failure
type ErrorCategory string

const (
	CategoryGeneric              ErrorCategory = "generic"
	CategoryNoConnection         ErrorCategory = "no_connection"
	CategoryLanguageNotSupported ErrorCategory = "language_not_supported"
	CategoryRequestTooLong       ErrorCategory = "request_too_long"
)

// Message returns the text shown to the user for the category
func (c ErrorCategory) Message() string {
	switch c {
	case CategoryNoConnection:
		return "No connection"
	case CategoryLanguageNotSupported:
		return "This language pair is not supported"
	case CategoryRequestTooLong:
		return "Request is too long"
	default:
		return "Something went wrong"
	}
}

// Classify maps a lookup failure to a user-facing category
func Classify(err error) ErrorCategory {
	var serverErr *ServerError
	switch {
	case errors.As(err, &serverErr):
		switch serverErr.EffectiveCode() {
		case CodeLangNotSupported:
			return CategoryLanguageNotSupported
		case CodeTextTooLong:
			return CategoryRequestTooLong
		default:
			return CategoryGeneric
		}
	case errors.Is(err, ErrNoConnection):
		return CategoryNoConnection
	default:
		return CategoryGeneric
	}
}

// LookupError is delivered to the sink when a lookup fails
type LookupError struct {
	Query    string
	Category ErrorCategory
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Query, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// isCancellation reports whether err only signals that the caller gave up
func isCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
