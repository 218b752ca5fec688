// Package slack alerts the care-team channel about high-risk triage
// verdicts via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/matri/internal/triage"
)

const httpTimeout = 10 * time.Second

// Notifier posts triage verdicts to a Slack webhook. It implements
// triage.Notifier.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a triage record to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, record *triage.Record) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(record)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Record) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			actionBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Record) map[string]any {
	title := "Triage Alert"
	if r.Fallback {
		title = "Triage Fallback"
	}
	text := fmt.Sprintf("%s %s: %s", tierEmoji(r.Verdict.Tier), title, r.Verdict.Tier)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Record) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk tier:* %s", r.Verdict.Tier),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Call:* %s", r.CallID),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Callback:* %s", callback(r.CallerPhone)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Weeks pregnant:* %d", r.WeeksPregnant),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func actionBlock(r *triage.Record) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Mandatory action*\n\n%s\n\n_%s_", r.Verdict.Action, r.Verdict.Reason),
		},
	}
}

func contextBlock(r *triage.Record) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("matri • triage %s • %s", r.ID, r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func tierEmoji(tier triage.Tier) string {
	switch tier {
	case triage.TierRed:
		return "\U0001f534" // red circle
	case triage.TierYellow:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func callback(phone string) string {
	if phone == "" {
		return "unknown"
	}
	return phone
}
