package webapi

import (
	"strings"

	"breedmirror/pkg/ratelimit"
)

// Proxy rewrites outgoing requests through a CORS relay. Relays carry
// their own request budgets, which the client folds into its rate-limit
// gate alongside the target API's limits.
type Proxy interface {
	// RewriteURL maps the target URL onto the relay
	RewriteURL(target string) string

	// Headers returns extra headers the relay requires
	Headers() map[string]string

	// Limits returns the relay's own request budgets
	Limits() []ratelimit.Limit
}

// CORSAnywhereProxy relays requests through a cors-anywhere instance
// (https://github.com/Rob--W/cors-anywhere).
type CORSAnywhereProxy struct {
	// Root of the relay; the public heroku instance when empty
	Root string
}

func (p *CORSAnywhereProxy) RewriteURL(target string) string {
	root := p.Root
	if root == "" {
		root = "https://cors-anywhere.herokuapp.com"
	}
	return strings.TrimSuffix(root, "/") + "/" + target
}

func (p *CORSAnywhereProxy) Headers() map[string]string {
	return map[string]string{"Origin": "null"}
}

func (p *CORSAnywhereProxy) Limits() []ratelimit.Limit {
	return []ratelimit.Limit{ratelimit.PerSecond(10)}
}

// BridgedProxy relays requests through https://cors.sh/. Requires an
// API key to operate correctly.
type BridgedProxy struct {
	APIKey string
}

func (p *BridgedProxy) RewriteURL(target string) string {
	return "https://proxy.cors.sh/" + target
}

func (p *BridgedProxy) Headers() map[string]string {
	return map[string]string{
		"Origin":         "null",
		"x-cors-api-key": p.APIKey,
	}
}

func (p *BridgedProxy) Limits() []ratelimit.Limit {
	return nil
}
