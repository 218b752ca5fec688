// Package transfer bridges an in-progress call to a doctor via the voice
// platform's live-call control API.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// Client posts transfer commands to a call's control URL.
type Client struct {
	client *http.Client
}

// New creates a new transfer client.
func New() *Client {
	return &Client{
		client: &http.Client{Timeout: httpTimeout},
	}
}

// Transfer asks the voice platform to bridge the live call to number. The
// content string is spoken to the caller before the transfer completes.
func (c *Client) Transfer(ctx context.Context, controlURL, number, content string) error {
	if controlURL == "" {
		return fmt.Errorf("transfer: empty control url")
	}
	if number == "" {
		return fmt.Errorf("transfer: empty destination number")
	}

	payload := map[string]any{
		"type": "transfer",
		"destination": map[string]any{
			"type":   "number",
			"number": number,
		},
		"content": content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transfer: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transfer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req) //nolint:gosec // G704: controlUrl comes from the verified platform webhook, not user input
	if err != nil {
		return fmt.Errorf("transfer: post control url: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("transfer: control api returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
