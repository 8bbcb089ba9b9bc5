package webapi

import (
	"context"
	"net/http"
	"net/url"
)

// Suppress is the set of HTTP status codes the caller tolerates. A
// response with a suppressed status is returned as a normal value
// instead of being raised as an error.
type Suppress map[int]bool

// SuppressCodes builds a suppression set from the given status codes
func SuppressCodes(codes ...int) Suppress {
	s := make(Suppress, len(codes))
	for _, code := range codes {
		s[code] = true
	}
	return s
}

// Contains reports whether the status code is suppressed
func (s Suppress) Contains(code int) bool {
	return s[code]
}

// With returns a copy of the set with the given code suppressed
func (s Suppress) With(code int) Suppress {
	out := make(Suppress, len(s)+1)
	for c, v := range s {
		out[c] = v
	}
	out[code] = true
	return out
}

// Request describes one call against an API root
type Request struct {
	// Method is the HTTP verb
	Method string

	// Endpoint is a path relative to the configured API root
	Endpoint string

	// Params are encoded into the request URL
	Params url.Values

	// Headers are merged over the client's default headers
	Headers map[string]string

	// Suppress lists status codes tolerated for this call
	Suppress Suppress
}

// Sender is the capability surface shared by the real rate-limited
// client and the decorators composed around it.
type Sender interface {
	Send(ctx context.Context, req Request) (*http.Response, error)
}
