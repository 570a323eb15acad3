// Package errors defines the structured error type used across the accountd
// service. Every error carries a stable code and an HTTP status so transport
// layers can map failures without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeInternal          Code = "internal"
	CodeInvalidRequest    Code = "invalid_request"
	CodeConflict          Code = "conflict"
	CodeKeyNotProvisioned Code = "key_not_provisioned"
	CodeSecretNotFound    Code = "secret_not_found"
	CodeJWKSFetch         Code = "jwks_fetch_failed"
	CodeJWKSParse         Code = "jwks_parse_failed"
	CodeTokenMalformed    Code = "token_malformed"
	CodeTokenInvalid      Code = "token_invalid"
	CodeIssuerMismatch    Code = "issuer_mismatch"
	CodeInvalidAssertion  Code = "invalid_assertion"
	CodeRefreshMismatch   Code = "refresh_mismatch"
	CodeRecordNotFound    Code = "record_not_found"
	CodeLastLoginRemoval  Code = "last_login_removal"
)

// Error is the structured application error.
type Error struct {
	code    Code
	status  int
	message string
	cause   error
}

// New creates an Error with the given code, HTTP status and message.
func New(code Code, status int, message string) *Error {
	return &Error{code: code, status: status, message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the stable error code.
func (e *Error) Code() Code { return e.code }

// HTTPStatus returns the HTTP status this error maps to.
func (e *Error) HTTPStatus() int { return e.status }

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches errors by code, so sentinel comparisons survive WithCause copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.code == t.code
}

// WithCause returns a copy of e carrying cause. The receiver is not mutated,
// so the predeclared sentinels stay shareable.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// WithMessagef returns a copy of e with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	c := *e
	c.message = fmt.Sprintf(format, args...)
	return &c
}

// Predeclared sentinels for the service's failure taxonomy.
var (
	ErrInternal          = New(CodeInternal, http.StatusInternalServerError, "internal error")
	ErrInvalidRequest    = New(CodeInvalidRequest, http.StatusBadRequest, "invalid request")
	ErrConflict          = New(CodeConflict, http.StatusConflict, "record already exists")
	ErrKeyNotProvisioned = New(CodeKeyNotProvisioned, http.StatusInternalServerError, "signing keys have not been provisioned for this service yet")
	ErrSecretNotFound    = New(CodeSecretNotFound, http.StatusNotFound, "secret not found")
	ErrJWKSFetch         = New(CodeJWKSFetch, http.StatusBadGateway, "unable to fetch remote key set")
	ErrJWKSParse         = New(CodeJWKSParse, http.StatusBadGateway, "remote key set is not a valid JWKS document")
	ErrTokenMalformed    = New(CodeTokenMalformed, http.StatusUnauthorized, "malformed authorization credential")
	ErrTokenInvalid      = New(CodeTokenInvalid, http.StatusUnauthorized, "token is expired or its signature is invalid")
	ErrIssuerMismatch    = New(CodeIssuerMismatch, http.StatusUnauthorized, "token issuer does not belong to this service domain")
	ErrInvalidAssertion  = New(CodeInvalidAssertion, http.StatusUnauthorized, "identity assertion could not be verified")
	ErrRefreshMismatch   = New(CodeRefreshMismatch, http.StatusForbidden, "refresh token does not match the stored record")
	ErrRecordNotFound    = New(CodeRecordNotFound, http.StatusNotFound, "record not found")
	ErrLastLoginRemoval  = New(CodeLastLoginRemoval, http.StatusBadRequest, "unable to remove the only configured login option")
)

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// HTTPStatus returns the HTTP status of err, or 500 for foreign errors.
func HTTPStatus(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.status
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Response is the JSON body returned for failed requests.
type Response struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ToResponse converts any error into a Response. Foreign errors collapse to a
// generic internal message so no internal detail leaks to clients.
func ToResponse(err error) *Response {
	var e *Error
	if stderrors.As(err, &e) {
		return &Response{Error: string(e.code), ErrorDescription: e.message}
	}
	return &Response{Error: string(CodeInternal), ErrorDescription: "an unexpected error occurred"}
}

// Is, As and Join re-export the stdlib helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
