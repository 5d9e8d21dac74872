package workerproc

import (
	"errors"
	"testing"
)

func TestParseMessageValid(t *testing.T) {
	body := `{"taskId":"task-1","requestId":"req-1","enqueuedAt":"2026-01-01T00:00:00Z","version":1}`

	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.TaskID != "task-1" || msg.RequestID != "req-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if meta.BodyLen != len(body) || meta.BodySHA == "" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodySHA == "" {
		t.Fatal("expected meta hash for diagnostics")
	}
}

func TestParseMessageMissingTaskID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-9","version":1}`)
	var missingErr ErrMissingTaskID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingTaskID, got %v", err)
	}
	if missingErr.RequestID != "req-9" {
		t.Fatalf("expected request id preserved, got %q", missingErr.RequestID)
	}
}
