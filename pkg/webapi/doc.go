// Package webapi implements the rate-limited request engine shared by
// the breedmirror API clients.
//
// A Client meters outbound HTTP requests against one or more sliding
// window rate limits: before every dispatch it prunes its request
// history, rechecks each limit in order, and sleeps a short poll
// interval while any of them is saturated. Responses are filtered
// through a per-call suppression set; a non-suppressed 4xx/5xx is
// raised as a StatusError annotated with the response body.
//
// Backend-specific behaviour composes around the Sender interface
// rather than by subclassing:
//
//	base := webapi.NewClient(webapi.Config{
//	    APIRoot:    "https://cloud-api.yandex.net/v1",
//	    OAuthToken: token,
//	    Limits:     []ratelimit.Limit{ratelimit.PerSecond(40)},
//	}, log)
//
//	// Retry 423 Locked responses with a bounded budget
//	sender := webapi.NewLockRetry(base, 20, 200*time.Millisecond, log)
//
//	resp, err := sender.Send(ctx, webapi.Request{
//	    Method:   http.MethodPut,
//	    Endpoint: "disk/resources",
//	    Params:   url.Values{"path": {"/dog_breeds"}},
//	    Suppress: webapi.SuppressCodes(http.StatusConflict),
//	})
//
// All blocking points are coarse sleep/recheck loops; cancellation is
// available only through the request context.
package webapi
