package diskapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"breedmirror/pkg/config"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/ratelimit"
	"breedmirror/pkg/retry"
	"breedmirror/pkg/webapi"
)

// DefaultAPIRoot is the cloud storage API v1 root
const DefaultAPIRoot = "https://cloud-api.yandex.net/v1"

// MaxRequestsPerSecond comes from clause 2.2 of the Yandex.Disk API
// terms of use.
const MaxRequestsPerSecond = 40

// DefaultOperationPollInterval is the pause between status polls for
// asynchronous operations.
const DefaultOperationPollInterval = 200 * time.Millisecond

const (
	resourcesEndpoint  = "disk/resources"
	uploadEndpoint     = "disk/resources/upload"
	operationsEndpoint = "disk/operations"
)

// operationStatusSuccess is the only terminal status the backend
// contract exposes; anything else counts as still pending.
const operationStatusSuccess = "success"

// link is the storage API's envelope for asynchronous operations
type link struct {
	Href   string `json:"href"`
	Method string `json:"method"`
}

// operationStatus is the payload of the operation-status endpoint
type operationStatus struct {
	Status string `json:"status"`
}

// Client communicates with the cloud storage API. Mutating calls are
// routed through the lock-retry decorator, and 202 Accepted responses
// are resolved by polling the operation-status endpoint.
type Client struct {
	sender       webapi.Sender
	pollInterval time.Duration
	maxWait      time.Duration
	logger       logger.Logger
}

// New creates a storage client from configuration
func New(cfg *config.StorageConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	limits := make([]ratelimit.Limit, 0, len(cfg.Limits))
	for _, l := range cfg.Limits {
		limits = append(limits, ratelimit.Limit{Period: l.Period, MaxRequests: l.MaxRequests})
	}

	base := webapi.NewClient(webapi.Config{
		APIRoot:        cfg.APIRoot,
		OAuthToken:     cfg.OAuthToken,
		Limits:         limits,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	}, log)

	sender := webapi.NewLockRetry(base, cfg.UnlockAttempts, cfg.UnlockDelay, log)

	pollInterval := cfg.OperationPollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultOperationPollInterval
	}

	return &Client{
		sender:       sender,
		pollInterval: pollInterval,
		maxWait:      cfg.OperationMaxWait,
		logger:       log,
	}
}

// NewWithSender creates a storage client around an existing Sender
func NewWithSender(sender webapi.Sender, pollInterval time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultOperationPollInterval
	}
	return &Client{sender: sender, pollInterval: pollInterval, logger: log}
}

// CreateDirectory creates a directory in cloud storage. When
// ignoreExisting is set, an already existing directory is not an error.
func (c *Client) CreateDirectory(ctx context.Context, dirPath string, ignoreExisting bool) error {
	var suppress webapi.Suppress
	if ignoreExisting {
		suppress = webapi.SuppressCodes(http.StatusConflict)
	}

	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodPut,
		Endpoint: resourcesEndpoint,
		Params:   url.Values{"path": {dirPath}},
		Suppress: suppress,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// DeleteItem deletes a file or directory from cloud storage. A false
// permanently moves the item to the recycle bin instead. When
// ignoreMissing is set, a missing item is not an error. Large deletions
// complete asynchronously; the call blocks until the backend reports
// the operation finished.
func (c *Client) DeleteItem(ctx context.Context, itemPath string, permanently, ignoreMissing bool) error {
	var suppress webapi.Suppress
	if ignoreMissing {
		suppress = webapi.SuppressCodes(http.StatusNotFound)
	}

	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodDelete,
		Endpoint: resourcesEndpoint,
		Params: url.Values{
			"path":        {itemPath},
			"permanently": {strconv.FormatBool(permanently)},
		},
		Suppress: suppress,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil
	}

	// The backend queued the deletion; resolve it synchronously
	opID, err := operationIDFromResponse(resp)
	if err != nil {
		return err
	}
	return c.WaitForOperation(ctx, opID)
}

// UploadFromURL creates a file in cloud storage filled with data the
// backend fetches directly from the source URL, so no data flows
// through this process.
func (c *Client) UploadFromURL(ctx context.Context, filePath, sourceURL string) error {
	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodPost,
		Endpoint: uploadEndpoint,
		Params: url.Values{
			"url":  {sourceURL},
			"path": {filePath},
		},
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Exists checks whether an item exists in cloud storage
func (c *Client) Exists(ctx context.Context, itemPath string) (bool, error) {
	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodGet,
		Endpoint: resourcesEndpoint,
		Params:   url.Values{"path": {itemPath}},
		Suppress: webapi.SuppressCodes(http.StatusNotFound),
	})
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode != http.StatusNotFound, nil
}

// WaitForOperation polls the operation-status endpoint until the
// operation reports success. The backend contract exposes no failure
// status, so anything else counts as still pending; a configured
// OperationMaxWait bounds the wait, zero polls without limit.
func (c *Client) WaitForOperation(ctx context.Context, operationID string) error {
	start := time.Now()
	for {
		status, err := c.operationStatus(ctx, operationID)
		if err != nil {
			return err
		}
		if status == operationStatusSuccess {
			return nil
		}

		c.logger.DebugWithFields("operation still pending", map[string]interface{}{
			"operation": operationID,
			"status":    status,
		})

		if c.maxWait > 0 && time.Since(start) >= c.maxWait {
			return fmt.Errorf("operation %s did not finish within %v (last status %q)",
				operationID, c.maxWait, status)
		}
		if err := retry.Wait(ctx, c.pollInterval); err != nil {
			return err
		}
	}
}

// operationStatus fetches the current status of an operation
func (c *Client) operationStatus(ctx context.Context, operationID string) (string, error) {
	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodGet,
		Endpoint: operationsEndpoint + "/" + operationID,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var status operationStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("failed to parse operation status: %w", err)
	}
	return status.Status, nil
}

// operationIDFromResponse extracts the operation id from a 202 response
// body, which carries a link to the operation-status endpoint.
func operationIDFromResponse(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read operation link: %w", err)
	}

	var l link
	if err := json.Unmarshal(raw, &l); err != nil {
		return "", fmt.Errorf("failed to parse operation link: %w", err)
	}
	if l.Href == "" {
		return "", fmt.Errorf("operation link missing href")
	}

	parsed, err := url.Parse(l.Href)
	if err != nil {
		return "", fmt.Errorf("invalid operation link %q: %w", l.Href, err)
	}
	id := path.Base(parsed.Path)
	if id == "" || id == "." || id == "/" || strings.Contains(id, "operations") {
		return "", fmt.Errorf("operation link %q carries no operation id", l.Href)
	}
	return id, nil
}
