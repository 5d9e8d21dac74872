package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contract-backend/internal/shared/telemetry"
)

// Event is emitted on each task's terminal transition. Delivery and
// retry are the webhook dispatcher's concern, not ours.
type Event struct {
	EventType  string `json:"eventType"`
	DocumentID string `json:"documentId,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
}

// Notifier receives terminal task events.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier writes events to the telemetry log.
type LogNotifier struct{}

// Notify logs the event.
func (LogNotifier) Notify(ctx context.Context, event Event) {
	telemetry.Info("task.event", map[string]any{
		"event_type":  event.EventType,
		"document_id": event.DocumentID,
		"question_id": event.QuestionID,
		"status":      event.Status,
		"timestamp":   event.Timestamp,
	})
}

// WebhookNotifier POSTs events to a configured endpoint, best effort.
type WebhookNotifier struct {
	URL        string
	HTTPClient *http.Client
}

// NewWebhookNotifier constructs a WebhookNotifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify delivers the event once. Failures are logged and dropped.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		telemetry.Error("webhook.encode", map[string]any{"error": err.Error()})
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		telemetry.Error("webhook.request", map[string]any{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		telemetry.Warn("webhook.delivery_failed", map[string]any{"error": err.Error()})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		telemetry.Warn("webhook.delivery_failed", map[string]any{
			"error": fmt.Sprintf("http status %d", resp.StatusCode),
		})
	}
}

var (
	_ Notifier = LogNotifier{}
	_ Notifier = (*WebhookNotifier)(nil)
)
