package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// ClientOption allows for customization of the client
type ClientOption func(*Client)

// Client is a typed, retrying VK API client. It is safe for use from
// multiple goroutines; rate limiting across callers is the owner's job.
type Client struct {
	config *Config
	http   *http.Client
	logger *logrus.Logger
}

// NewClient creates a new VK API client. The access token is injected
// once at construction, never per call.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := &Client{
		config: config,
		http: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: config.Logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("access_token", c.config.AccessToken)
	query.Set("v", c.config.Version)

	fullURL := c.config.BaseURL + endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: http status 429", ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"endpoint":    endpoint,
		}).Error("VK API request failed")
		return nil, &APIError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return body, nil
}

// requestWithRetry wraps makeRequest with the bounded network-flakiness
// retry policy. API-level errors never reach the retry loop because the
// body is decoded by the caller.
func (c *Client) requestWithRetry(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		body, err := c.makeRequest(ctx, endpoint, params)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if attempt == c.config.RetryAttempts {
			break
		}

		delay := retryDelay(c.config.RetryBaseDelay, attempt)
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
			"delay":    delay.String(),
			"error":    err.Error(),
		}).Warn("Retrying VK request after network error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryAttempts, lastErr)
}

func decodeList[T any](body []byte) ([]T, int, error) {
	var envelope listResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, fmt.Errorf("malformed response payload: %w", err)
	}
	if envelope.Error != nil {
		return nil, 0, envelope.Error.toError()
	}
	return envelope.Response.Items, envelope.Response.Count, nil
}
