package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/techmad220/RavenX/internal/model"
)

// maxHighlights caps the number of findings quoted in one notification.
// Everything beyond the cap is in the full report; the webhook message
// is a pager, not an archive.
const maxHighlights = 20

// defaultWebhookTimeout bounds the webhook POST.
const defaultWebhookTimeout = 10 * time.Second

// SlackExporter posts high-priority finding highlights to a Slack
// incoming webhook.
type SlackExporter struct {
	// webhookURL is the incoming webhook endpoint. An empty URL
	// disables the exporter.
	webhookURL string

	// client is the HTTP client used for webhook delivery.
	client *http.Client
}

// slackMessage is the minimal incoming-webhook payload.
type slackMessage struct {
	Text string `json:"text"`
}

// NewSlackExporter creates an exporter for the given webhook URL.
func NewSlackExporter(webhookURL string) *SlackExporter {
	return &SlackExporter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: defaultWebhookTimeout},
	}
}

// Send posts high and critical findings from the report to the webhook.
// Returns true if a message was delivered. Reports without high-priority
// findings, and exporters without a webhook URL, send nothing and
// return (false, nil).
func (e *SlackExporter) Send(ctx context.Context, report *model.ScanReport) (bool, error) {
	if e.webhookURL == "" {
		return false, nil
	}

	highlights := report.FindingsAtLeast(model.SeverityHigh)
	if len(highlights) == 0 {
		return false, nil
	}
	if len(highlights) > maxHighlights {
		highlights = highlights[:maxHighlights]
	}

	lines := make([]string, 0, len(highlights))
	for _, f := range highlights {
		lines = append(lines, fmt.Sprintf("*%s* %s - %s", strings.ToUpper(f.Severity.String()), f.Type, f.URL))
	}
	text := "RavenX: high-priority findings\n" + strings.Join(lines, "\n")

	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return false, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return false, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return true, nil
}
