// Package apierror provides standardized error values and response envelopes
// for the API. Services return *Error values tagged with a Kind; handlers map
// the kind to an HTTP status so no internal detail (DB errors, upstream
// payloads) ever reaches a client.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of its message.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindConfiguration // extraction credential or similar missing
	KindUpstream      // external extraction call failed or replied garbage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable indicator sent alongside 500s so clients can
// tell a missing credential apart from a failed extraction.
func (k Kind) Code() string {
	switch k {
	case KindConfiguration:
		return "extraction_not_configured"
	case KindUpstream:
		return "extraction_failed"
	default:
		return ""
	}
}

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// Upstream wraps an extraction failure; err may be nil.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Response is the canonical error envelope for all 4xx/5xx HTTP responses.
type Response struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func New(msg string) *Response {
	return &Response{Error: msg}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *Response {
	return &Response{Error: "validation failed", Fields: fields}
}

// FromError builds the client envelope for err. Internal errors collapse to a
// generic message.
func FromError(err error) (int, *Response) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return http.StatusInternalServerError, New("internal server error")
	}
	return e.Kind.Status(), &Response{Error: e.Message, Code: e.Kind.Code()}
}
