package jobs

import (
	"context"
	"errors"
	"strings"

	"contract-backend/internal/embedding"
	"contract-backend/internal/extract"
	"contract-backend/internal/index"
	"contract-backend/internal/llm"
)

var (
	ErrNotFound              = errors.New("task not found")
	ErrJobQueueNotConfigured = errors.New("job queue not configured")
)

const (
	ErrorCodeExtraction = "EXTRACTION_FAILURE"
	ErrorCodeStaleIndex = "STALE_INDEX"
	ErrorCodeInference  = "INFERENCE_UNAVAILABLE"
	ErrorCodeCancelled  = "CANCELLED"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)

// classifyFailure maps a task error to an error code and whether the
// task is worth retrying.
func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorCodeCancelled, false
	case errors.Is(err, extract.ErrNoText):
		return ErrorCodeExtraction, false
	case errors.Is(err, index.ErrStaleIndex), errors.Is(err, index.ErrNotIndexed):
		return ErrorCodeStaleIndex, false
	case errors.Is(err, embedding.ErrUnavailable), errors.Is(err, llm.ErrUnavailable):
		return ErrorCodeInference, true
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeInference, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "embedding")) {
		return ErrorCodeInference, true
	}
	if strings.Contains(msg, "extract") || strings.Contains(msg, "no extractable text") {
		return ErrorCodeExtraction, false
	}
	if strings.Contains(msg, "storage") || strings.Contains(msg, "database") || strings.Contains(msg, "object") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
