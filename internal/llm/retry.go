package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"contract-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base      Client
	requestID string
	taskID    string
}

// WithRetry wraps base so transient provider failures get one retried call.
// Streaming calls retry only when the failure happened before the first token.
func WithRetry(base Client, taskID, requestID string) Client {
	if base == nil {
		return nil
	}
	return retryingClient{
		base:      base,
		requestID: requestID,
		taskID:    taskID,
	}
}

func (r retryingClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := r.base.Complete(ctx, messages)
	if err == nil || !shouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm retry", map[string]any{
		"attempt":   1,
		"requestId": r.requestID,
		"taskId":    r.taskID,
		"error":     err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Complete(ctx, messages)
}

func (r retryingClient) CompleteStream(ctx context.Context, messages []Message, emit func(token string) error) (string, error) {
	emitted := false
	wrapped := func(token string) error {
		emitted = true
		return emit(token)
	}

	resp, err := r.base.CompleteStream(ctx, messages, wrapped)
	if err == nil || emitted || !shouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm stream retry", map[string]any{
		"attempt":   1,
		"requestId": r.requestID,
		"taskId":    r.taskID,
		"error":     err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.CompleteStream(ctx, messages, emit)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "status 429") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
