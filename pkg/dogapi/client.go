package dogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"breedmirror/pkg/config"
	"breedmirror/pkg/errors"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/ratelimit"
	"breedmirror/pkg/webapi"
)

// DefaultAPIRoot is the public dog breed catalog API
const DefaultAPIRoot = "https://dog.ceo/api"

// The catalog API sometimes takes a long time to respond
const (
	DefaultConnectTimeout = 21050 * time.Millisecond
	DefaultReadTimeout    = 40 * time.Second
)

// envelope is the JSON wrapper every catalog response uses
type envelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
}

// Client communicates with the dog breed catalog API. All calls are
// GET-only and go through the shared rate-limited request engine.
type Client struct {
	sender webapi.Sender
	logger logger.Logger
}

// New creates a catalog client from configuration
func New(cfg *config.CatalogConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	limits := make([]ratelimit.Limit, 0, len(cfg.Limits))
	for _, l := range cfg.Limits {
		limits = append(limits, ratelimit.Limit{Period: l.Period, MaxRequests: l.MaxRequests})
	}

	base := webapi.NewClient(webapi.Config{
		APIRoot:        cfg.APIRoot,
		Limits:         limits,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	}, log)

	return &Client{sender: base, logger: log}
}

// NewWithSender creates a catalog client around an existing Sender
func NewWithSender(sender webapi.Sender, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{sender: sender, logger: log}
}

// ListAllBreeds returns all known breeds mapped to their sub-breed
// variants; breeds without variants map to an empty list.
func (c *Client) ListAllBreeds(ctx context.Context) (map[string][]string, error) {
	var breeds map[string][]string
	if err := c.get(ctx, "breeds/list/all", &breeds); err != nil {
		return nil, err
	}
	return breeds, nil
}

// BreedImages returns all image URLs for a breed. An empty subBreed
// selects the plain breed.
func (c *Client) BreedImages(ctx context.Context, breed, subBreed string) ([]string, error) {
	var images []string
	endpoint := fmt.Sprintf("breed/%s/images", breedPath(breed, subBreed))
	if err := c.get(ctx, endpoint, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// RandomBreedImage returns one random image URL for a breed
func (c *Client) RandomBreedImage(ctx context.Context, breed, subBreed string) (string, error) {
	var image string
	endpoint := fmt.Sprintf("breed/%s/images/random", breedPath(breed, subBreed))
	if err := c.get(ctx, endpoint, &image); err != nil {
		return "", err
	}
	return image, nil
}

// RandomBreedImages returns up to count random image URLs for a breed
func (c *Client) RandomBreedImages(ctx context.Context, count int, breed, subBreed string) ([]string, error) {
	var images []string
	endpoint := fmt.Sprintf("breed/%s/images/random/%d", breedPath(breed, subBreed), count)
	if err := c.get(ctx, endpoint, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// breedPath builds the breed segment of an endpoint path
func breedPath(breed, subBreed string) string {
	if subBreed != "" {
		return breed + "/" + subBreed
	}
	return breed
}

// get performs a GET request and unwraps the message envelope into target
func (c *Client) get(ctx context.Context, endpoint string, target interface{}) error {
	resp, err := c.sender.Send(ctx, webapi.Request{
		Method:   http.MethodGet,
		Endpoint: endpoint,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.ErrorWithFields("failed to parse catalog response", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"error":    err.Error(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(env.Message, target); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("unexpected message payload: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}
