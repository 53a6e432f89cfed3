package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookNotifier POSTs hand-off payloads to an HTTP trigger endpoint.
// Absence of acknowledgement is non-fatal for callers; the error return
// exists so they can log it.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given endpoint.
// A zero timeout uses the default.
func NewWebhookNotifier(url string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook-notifier"),
	}
}

// Notify delivers the hand-off payload as a JSON POST.
func (n *WebhookNotifier) Notify(ctx context.Context, h Handoff) error {
	body, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal hand-off: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build hand-off request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("hand-off delivery failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hand-off endpoint returned %d", resp.StatusCode)
	}

	n.logger.Debug("hand-off delivered",
		"delivery_id", h.DeliveryID,
		"agent", h.Agent,
		"post_id", h.PostID)
	return nil
}
