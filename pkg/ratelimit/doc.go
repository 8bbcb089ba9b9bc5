// Package ratelimit provides sliding-window request accounting for the
// breedmirror API clients.
//
// A SlidingWindow tracks the timestamps of recent dispatches. Clients
// check it against one or more Limits before sending a request and
// record each dispatch afterwards, keeping their outbound rate within
// every configured budget.
//
// Usage:
//
//	window := ratelimit.NewSlidingWindow()
//	limit := ratelimit.PerSecond(40)
//
//	now := time.Now()
//	window.Prune(2*time.Second, now)
//	if window.CountInWindow(limit.Period, now) < limit.MaxRequests {
//	    window.Record(now)
//	    // Dispatch the request
//	}
package ratelimit
