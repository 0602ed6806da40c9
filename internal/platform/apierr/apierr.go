package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes returned to API callers.
const (
	CodeValidation   = "validation_failed"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeUpstream     = "upstream_failed"
	CodeStorage      = "storage_failed"
	CodeInternal     = "internal_error"
	CodeNoRecommend  = "no_recommendation"
	CodeNoFavourite  = "no_favourite"
	CodeNoHistory    = "no_history"
	CodeMovieMissing = "movie_not_found"
	CodeNoMatches    = "no_matches"
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

// Internal reports whether the error must be hidden from the caller.
func (e *Error) Internal() bool {
	return e != nil && e.Status >= http.StatusInternalServerError
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, errors.New(msg))
}

func NotFound(code, msg string) *Error {
	if code == "" {
		code = CodeNotFound
	}
	return New(http.StatusNotFound, code, errors.New(msg))
}

func Upstream(op string, err error) *Error {
	return New(http.StatusInternalServerError, CodeUpstream, fmt.Errorf("%s: %w", op, err))
}

func Storage(op string, err error) *Error {
	return New(http.StatusInternalServerError, CodeStorage, fmt.Errorf("%s: %w", op, err))
}

// As extracts an *Error from err; unknown errors become internal 500s.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// IsNotFound reports whether err carries a 404 classification.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}
