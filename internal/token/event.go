// Package token implements issuance, verification and refresh of the
// service's identity tokens.
package token

import (
	"net/http"
	"strings"
)

// Event is the transport-neutral view of an inbound request that the token
// components operate on. Gateways that pre-extract the credential populate
// AuthorizationToken; otherwise the headers are consulted.
type Event struct {
	// AuthorizationToken is a pre-extracted credential, checked before any
	// header.
	AuthorizationToken string
	Headers            map[string]string
	Method             string
	Path               string
}

// FromHTTP captures the parts of an HTTP request the token layer needs.
func FromHTTP(r *http.Request) *Event {
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	if r.Host != "" {
		headers["Host"] = r.Host
	}
	return &Event{
		Headers: headers,
		Method:  r.Method,
		Path:    r.URL.Path,
	}
}

// Header returns the named header, trying the exact name, then its
// canonical form, then a case-insensitive scan.
func (e *Event) Header(name string) string {
	if v, ok := e.Headers[name]; ok {
		return v
	}
	if v, ok := e.Headers[http.CanonicalHeaderKey(name)]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Credential returns the raw authorization value: the pre-extracted token
// when present, else the Authorization header in either casing.
func (e *Event) Credential() string {
	if e.AuthorizationToken != "" {
		return e.AuthorizationToken
	}
	if v, ok := e.Headers["Authorization"]; ok && v != "" {
		return v
	}
	if v, ok := e.Headers["authorization"]; ok && v != "" {
		return v
	}
	return e.Header("Authorization")
}

// Origin is the externally visible scheme, host and path of a request,
// used to build issuer and refresh URLs.
type Origin struct {
	Scheme string
	Host   string
	Path   string
}

// DeriveOrigin builds the request origin. The scheme is https exactly when
// the forwarding proxy says so.
func (e *Event) DeriveOrigin() Origin {
	scheme := "http"
	if e.Header("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return Origin{
		Scheme: scheme,
		Host:   e.Header("Host"),
		Path:   e.Path,
	}
}

// BaseURL renders the origin as `<scheme>://<host><path>`.
func (o Origin) BaseURL() string {
	return o.Scheme + "://" + o.Host + o.Path
}
