package api

// This file contains the REST client for the voice agent testing service.
// The client is a faithful binding of the remote surface: one method per
// endpoint, no retries, errors mapped to the taxonomy in errors.go.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dialcheck/dialcheck/model"
	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the test service REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New returns a client for the given API base URL, authenticating every
// request with the given key.
func New(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// CreateTestRun submits a run creation request and returns the new run.
// The request is validated locally before any network traffic.
func (c *Client) CreateTestRun(ctx context.Context, req *model.TestRunRequest) (*model.TestRunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp model.TestRunResponse
	if err := c.do(ctx, http.MethodPost, "/test-runs/test-inbound-agent", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create test run: %w", err)
	}
	return &resp, nil
}

// GetRunStatus fetches the current status of a run.
func (c *Client) GetRunStatus(ctx context.Context, testRunID string) (model.Status, error) {
	var resp struct {
		Status model.Status `json:"status"`
	}
	path := fmt.Sprintf("/test-runs/%s/status", url.PathEscape(testRunID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get status for test run %s: %w", testRunID, err)
	}
	return resp.Status, nil
}

// GetRunResults fetches the full result document for a run.
func (c *Client) GetRunResults(ctx context.Context, testRunID string) (*model.TestRunResults, error) {
	var resp model.TestRunResults
	path := fmt.Sprintf("/test-runs/%s/results", url.PathEscape(testRunID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get results for test run %s: %w", testRunID, err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy, preserving
// the server message when the body carries one.
func (c *Client) statusError(resp *http.Response) error {
	message := serverMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrRunNotFound, message)
		}
		return ErrRunNotFound
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: message}
}

func serverMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(data))
}
