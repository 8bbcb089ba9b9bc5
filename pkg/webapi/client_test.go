package webapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breedmirror/pkg/logger"
	"breedmirror/pkg/ratelimit"
)

// recordingHandler captures incoming requests for inspection
type recordingHandler struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
	body     string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	clone := r.Clone(context.Background())
	h.requests = append(h.requests, clone)
	h.mu.Unlock()

	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if h.body != "" {
		w.Write([]byte(h.body))
	}
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests)
}

func (h *recordingHandler) last() *http.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) == 0 {
		return nil
	}
	return h.requests[len(h.requests)-1]
}

func newTestClient(t *testing.T, handler *recordingHandler, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.APIRoot = server.URL
	return NewClient(cfg, logger.NewTestLogger()), server
}

func TestClientSendSuccess(t *testing.T) {
	handler := &recordingHandler{body: `{"ok":true}`}
	client, _ := newTestClient(t, handler, Config{})

	resp, err := client.Send(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "breeds/list/all",
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))

	req := handler.last()
	require.NotNil(t, req)
	assert.Equal(t, "/breeds/list/all", req.URL.Path)
}

func TestClientSendEncodesParams(t *testing.T) {
	handler := &recordingHandler{}
	client, _ := newTestClient(t, handler, Config{})

	resp, err := client.Send(context.Background(), Request{
		Method:   http.MethodPut,
		Endpoint: "disk/resources",
		Params:   url.Values{"path": {"/dog_breeds/hound"}},
	})
	require.NoError(t, err)
	resp.Body.Close()

	req := handler.last()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/dog_breeds/hound", req.URL.Query().Get("path"))
}

func TestClientSendHeaders(t *testing.T) {
	t.Run("default headers with token", func(t *testing.T) {
		handler := &recordingHandler{}
		client, _ := newTestClient(t, handler, Config{OAuthToken: "secret-token"})

		resp, err := client.Send(context.Background(), Request{
			Method:   http.MethodGet,
			Endpoint: "disk/resources",
		})
		require.NoError(t, err)
		resp.Body.Close()

		req := handler.last()
		require.NotNil(t, req)
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Equal(t, "OAuth secret-token", req.Header.Get("Authorization"))
	})

	t.Run("caller headers win on collision", func(t *testing.T) {
		handler := &recordingHandler{}
		client, _ := newTestClient(t, handler, Config{OAuthToken: "secret-token"})

		resp, err := client.Send(context.Background(), Request{
			Method:   http.MethodGet,
			Endpoint: "disk/resources",
			Headers: map[string]string{
				"Accept":   "text/plain",
				"X-Custom": "value",
			},
		})
		require.NoError(t, err)
		resp.Body.Close()

		req := handler.last()
		require.NotNil(t, req)
		assert.Equal(t, "text/plain", req.Header.Get("Accept"))
		assert.Equal(t, "value", req.Header.Get("X-Custom"))
		assert.Equal(t, "OAuth secret-token", req.Header.Get("Authorization"))
	})
}

func TestClientSendErrorStatus(t *testing.T) {
	handler := &recordingHandler{
		status: http.StatusBadRequest,
		body:   `{"error":"FieldValidationError","message":"bad path"}`,
	}
	client, _ := newTestClient(t, handler, Config{})

	resp, err := client.Send(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "disk/resources",
	})
	require.Error(t, err)
	assert.Nil(t, resp)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	// JSON bodies are pretty-printed into the error for diagnostics
	assert.Contains(t, statusErr.Body, `"error": "FieldValidationError"`)
	assert.Contains(t, statusErr.Body, `"message": "bad path"`)
}

func TestClientSendSuppressedStatus(t *testing.T) {
	handler := &recordingHandler{status: http.StatusNotFound}
	client, _ := newTestClient(t, handler, Config{})

	resp, err := client.Send(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "disk/resources",
		Suppress: SuppressCodes(http.StatusNotFound),
	})
	require.NoError(t, err, "suppressed status comes back as a value")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientRateLimitGate(t *testing.T) {
	handler := &recordingHandler{}
	period := 300 * time.Millisecond
	client, _ := newTestClient(t, handler, Config{
		Limits:       []ratelimit.Limit{{Period: period, MaxRequests: 2}},
		PollInterval: 10 * time.Millisecond,
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Send(ctx, Request{Method: http.MethodGet, Endpoint: "ping"})
		require.NoError(t, err)
		resp.Body.Close()
	}
	elapsed := time.Since(start)

	assert.Equal(t, 3, handler.count())
	// The third request must wait for the first one to age out of the window
	assert.GreaterOrEqual(t, elapsed, period-20*time.Millisecond,
		"third request should have been delayed by the rate gate")
}

func TestClientRateLimitGateCancellation(t *testing.T) {
	handler := &recordingHandler{}
	client, _ := newTestClient(t, handler, Config{
		Limits:       []ratelimit.Limit{{Period: time.Hour, MaxRequests: 1}},
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := client.Send(ctx, Request{Method: http.MethodGet, Endpoint: "ping"})
	require.NoError(t, err)
	resp.Body.Close()

	// The second request can never pass the gate; cancellation frees it
	_, err = client.Send(ctx, Request{Method: http.MethodGet, Endpoint: "ping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, handler.count())
}

func TestClientRatePerPeriod(t *testing.T) {
	handler := &recordingHandler{}
	client, _ := newTestClient(t, handler, Config{
		HistoryRetention: time.Minute,
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		resp, err := client.Send(ctx, Request{Method: http.MethodGet, Endpoint: "ping"})
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 4, client.RatePerPeriod(time.Minute))
}

func TestSuppress(t *testing.T) {
	s := SuppressCodes(http.StatusNotFound, http.StatusConflict)
	assert.True(t, s.Contains(http.StatusNotFound))
	assert.True(t, s.Contains(http.StatusConflict))
	assert.False(t, s.Contains(http.StatusLocked))

	widened := s.With(http.StatusLocked)
	assert.True(t, widened.Contains(http.StatusLocked))
	assert.False(t, s.Contains(http.StatusLocked), "With must not mutate the original set")

	var none Suppress
	assert.False(t, none.Contains(http.StatusOK))
	assert.True(t, none.With(http.StatusLocked).Contains(http.StatusLocked))
}
