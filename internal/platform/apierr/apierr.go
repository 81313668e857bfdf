package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients. The analysis pipeline maps its failure
// modes onto these; anything unlisted becomes "internal".
const (
	CodeInvalidChallenge          = "invalid_challenge"
	CodeChallengeNotFound         = "challenge_not_found"
	CodeIncompleteChallenge       = "incomplete_challenge"
	CodeAlreadyAnalyzed           = "already_analyzed"
	CodeProviderError             = "provider_error"
	CodeMalformedProviderResponse = "malformed_provider_response"
	CodeNoAnalyses                = "no_analyses"
	CodePersistenceError          = "persistence_error"
	CodeUnauthorized              = "unauthorized"
	CodeForbidden                 = "forbidden"
	CodeBadRequest                = "bad_request"
	CodeNotFound                  = "not_found"
	CodeInternal                  = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Newf(status int, code string, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

// From unwraps err to an *Error, or wraps it as an internal 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// Is reports whether err carries the given API error code.
func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
