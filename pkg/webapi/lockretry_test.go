package webapi

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breedmirror/pkg/logger"
)

// scriptedSender replays a fixed sequence of responses, applying the
// request's suppression policy the way the real client does.
type scriptedSender struct {
	statuses []int
	calls    int
	suppress []Suppress
	err      error
}

func (s *scriptedSender) Send(ctx context.Context, req Request) (*http.Response, error) {
	s.suppress = append(s.suppress, req.Suppress)
	if s.err != nil {
		return nil, s.err
	}

	status := s.statuses[len(s.statuses)-1]
	if s.calls < len(s.statuses) {
		status = s.statuses[s.calls]
	}
	s.calls++

	resp := &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader("")),
	}
	return RaiseForStatus(resp, req.Suppress)
}

func TestLockRetryPassesThroughSuccess(t *testing.T) {
	inner := &scriptedSender{statuses: []int{http.StatusOK}}
	lr := NewLockRetry(inner, 5, time.Millisecond, logger.NewTestLogger())

	resp, err := lr.Send(context.Background(), Request{Method: http.MethodPut, Endpoint: "disk/resources"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, inner.calls)
}

func TestLockRetryRecoversAfterUnlock(t *testing.T) {
	inner := &scriptedSender{statuses: []int{
		http.StatusLocked,
		http.StatusLocked,
		http.StatusCreated,
	}}
	lr := NewLockRetry(inner, 5, time.Millisecond, logger.NewTestLogger())

	resp, err := lr.Send(context.Background(), Request{Method: http.MethodPut, Endpoint: "disk/resources"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 3, inner.calls)

	// The inner calls carry the widened suppression set
	for _, s := range inner.suppress {
		assert.True(t, s.Contains(http.StatusLocked))
	}
}

func TestLockRetryExhaustsBudget(t *testing.T) {
	inner := &scriptedSender{statuses: []int{http.StatusLocked}}
	lr := NewLockRetry(inner, 4, time.Millisecond, logger.NewTestLogger())

	resp, err := lr.Send(context.Background(), Request{Method: http.MethodPut, Endpoint: "disk/resources"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 4, inner.calls, "budget counts the first try")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusLocked, statusErr.StatusCode)
}

func TestLockRetryExhaustedWithCallerSuppression(t *testing.T) {
	inner := &scriptedSender{statuses: []int{http.StatusLocked}}
	lr := NewLockRetry(inner, 3, time.Millisecond, logger.NewTestLogger())

	// The caller tolerating the lock code gets the response back instead
	resp, err := lr.Send(context.Background(), Request{
		Method:   http.MethodPut,
		Endpoint: "disk/resources",
		Suppress: SuppressCodes(http.StatusLocked),
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Equal(t, 3, inner.calls)
}

func TestLockRetryOtherErrorsNotRetried(t *testing.T) {
	inner := &scriptedSender{statuses: []int{http.StatusInternalServerError}}
	lr := NewLockRetry(inner, 5, time.Millisecond, logger.NewTestLogger())

	resp, err := lr.Send(context.Background(), Request{Method: http.MethodPut, Endpoint: "disk/resources"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, inner.calls, "only the lock code is retried")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestLockRetryInnerFailure(t *testing.T) {
	sentinel := stderrors.New("connection refused")
	inner := &scriptedSender{err: sentinel}
	lr := NewLockRetry(inner, 5, time.Millisecond, logger.NewTestLogger())

	resp, err := lr.Send(context.Background(), Request{Method: http.MethodPut, Endpoint: "disk/resources"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, sentinel)
}

func TestLockRetryDefaults(t *testing.T) {
	lr := NewLockRetry(&scriptedSender{statuses: []int{http.StatusOK}}, 0, 0, nil)
	assert.Equal(t, DefaultUnlockAttempts, lr.maxAttempts)
	assert.Equal(t, DefaultUnlockDelay, lr.delay)
}
