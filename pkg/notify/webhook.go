package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// WebhookSink POSTs a Payload as JSON to a fixed URL.
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookSink creates a WebhookSink. If url is empty, Send is a no-op.
func NewWebhookSink(url string, logger *slog.Logger) *WebhookSink {
	return &WebhookSink{url: url, httpClient: &http.Client{}, logger: logger}
}

type webhookBody struct {
	Channel Channel           `json:"channel"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Send POSTs payload as JSON. Non-2xx responses and transport errors are
// returned to the caller, who — per the Notification Sink contract — must
// not roll back the originating domain event on failure.
func (w *WebhookSink) Send(ctx context.Context, channel Channel, payload Payload) error {
	if w.url == "" {
		w.logger.Debug("webhook sink disabled, skipping notification", "title", payload.Title)
		return nil
	}

	body, err := json.Marshal(webhookBody{Channel: channel, Title: payload.Title, Body: payload.Body, Fields: payload.Fields})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
