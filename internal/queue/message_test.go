package queue

import (
	"context"
	"testing"
	"time"
)

func TestEncodeDecodeMessage(t *testing.T) {
	msg := Message{
		TaskID:     "task-123",
		RequestID:  "req-456",
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != msg {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, msg)
	}
}

func TestNewTaskMessageStampsEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	msg := NewTaskMessage("task-123", "req-456", at)

	if msg.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, msg.Version)
	}
	if msg.EnqueuedAt != "2026-03-14T09:30:00Z" {
		t.Fatalf("unexpected enqueue timestamp: %q", msg.EnqueuedAt)
	}
	if msg.TaskID != "task-123" || msg.RequestID != "req-456" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
}

func TestDecodeMessageInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLocalClientSendReceive(t *testing.T) {
	client := NewLocalClient(4)
	ctx := context.Background()

	if err := client.Send(ctx, Message{TaskID: "task-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.TaskID != "task-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestLocalClientFullBuffer(t *testing.T) {
	client := NewLocalClient(1)
	ctx := context.Background()

	if err := client.Send(ctx, Message{TaskID: "task-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := client.Send(ctx, Message{TaskID: "task-2"}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
