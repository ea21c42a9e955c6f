// Package ctlclient is the thin HTTP client agentwalletctl's subcommands
// use to talk to a running agentwalletd. Modeled on echoctl's factory
// pattern, simplified to a single struct since there is no plugin
// discovery or multi-cluster config to manage.
package ctlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client carries the base URL and bearer token used for every call.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New builds a Client against baseURL using token for bearer auth.
func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: http.DefaultClient}
}

// APIError is returned when the server responds with a 4xx/5xx envelope.
type APIError struct {
	Status  int
	Class   string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s, http %d)", e.Message, e.Class, e.Status)
}

// Do issues an HTTP request against path with an optional JSON body and
// decodes a successful response into out (skipped if out is nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error struct {
				Class   string `json:"class"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &envelope)
		return &APIError{Status: resp.StatusCode, Class: envelope.Error.Class, Message: envelope.Error.Message}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// DoRaw behaves like Do but returns the raw response body instead of
// decoding JSON, for endpoints such as the CSV audit export.
func (c *Client) DoRaw(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Message: string(data)}
	}
	return data, nil
}
