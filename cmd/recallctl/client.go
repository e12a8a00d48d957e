package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// queryTimeout covers a full reasoning round trip.
const queryTimeout = 2 * time.Minute

// client talks to the recall HTTP API.
type client struct {
	serverURL string
}

// apiError mirrors the server's ErrorResponse.
type apiError struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func (c *client) url(path string) string {
	return strings.TrimRight(c.serverURL, "/") + path
}

// do sends body to path and decodes a successful response into out.
func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader, timeout time.Duration, out any) error {
	url := c.url(path)
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *client) postJSON(ctx context.Context, path string, in, out any, timeout time.Duration) error {
	reqJSON, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(reqJSON), timeout, out)
}

// statusError renders a non-2xx response, preferring the API's error body.
func statusError(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil {
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		switch {
		case msg == "":
		case apiErr.Field != "":
			return fmt.Errorf("server returned status %d: %s (field %s)", resp.StatusCode, msg, apiErr.Field)
		case apiErr.UpstreamStatus != 0:
			return fmt.Errorf("server returned status %d: %s (upstream status %d)", resp.StatusCode, msg, apiErr.UpstreamStatus)
		default:
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg)
		}
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
