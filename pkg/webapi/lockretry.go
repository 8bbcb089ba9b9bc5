package webapi

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"breedmirror/pkg/logger"
	"breedmirror/pkg/retry"
)

// Default values for the lock-retry policy
const (
	// DefaultUnlockAttempts is the total attempt budget, first try included
	DefaultUnlockAttempts = 20

	// DefaultUnlockDelay is the fixed pause between locked attempts
	DefaultUnlockDelay = 200 * time.Millisecond
)

// errStillLocked signals that the backend answered 423 Locked
var errStillLocked = stderrors.New("resource is still locked")

// LockRetry wraps a Sender and transparently retries requests the
// backend rejects with 423 Locked, which the storage API may return
// right after a mutation on the same path. Retries apply only to the
// lock code; every other status follows the caller's own policy. Once
// the attempt budget is exhausted the caller's suppression set decides
// whether the lock surfaces as an error.
type LockRetry struct {
	inner       Sender
	maxAttempts int
	delay       time.Duration
	logger      logger.Logger
}

// NewLockRetry creates a lock-retry decorator around a Sender.
// Non-positive maxAttempts or delay select the defaults.
func NewLockRetry(inner Sender, maxAttempts int, delay time.Duration, log logger.Logger) *LockRetry {
	if log == nil {
		log = logger.GetLogger()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultUnlockAttempts
	}
	if delay <= 0 {
		delay = DefaultUnlockDelay
	}
	return &LockRetry{
		inner:       inner,
		maxAttempts: maxAttempts,
		delay:       delay,
		logger:      log,
	}
}

// Send dispatches the request through the inner Sender, suppressing the
// lock code internally so it can be inspected without raising.
func (lr *LockRetry) Send(ctx context.Context, req Request) (*http.Response, error) {
	inner := req
	inner.Suppress = req.Suppress.With(http.StatusLocked)

	var resp *http.Response
	op := func() error {
		r, err := lr.inner.Send(ctx, inner)
		if err != nil {
			return err
		}
		if resp != nil {
			// Drop the previous locked response
			resp.Body.Close()
		}
		resp = r
		if r.StatusCode == http.StatusLocked {
			return errStillLocked
		}
		return nil
	}

	err := retry.Do(op, &retry.Config{
		MaxAttempts: lr.maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: lr.delay},
		RetryIf: func(err error) bool {
			return stderrors.Is(err, errStillLocked)
		},
		Context: ctx,
		Logger:  lr.logger.WithField("retry", "unlock"),
	})
	if err == nil {
		return resp, nil
	}
	if stderrors.Is(err, errStillLocked) {
		// Budget exhausted with the resource still locked: fall back to
		// the caller's original suppression policy.
		lr.logger.WarnWithFields("resource stayed locked past the attempt budget", map[string]interface{}{
			"endpoint": req.Endpoint,
			"attempts": lr.maxAttempts,
		})
		return RaiseForStatus(resp, req.Suppress)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return nil, err
}
