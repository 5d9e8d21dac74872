package queue

import (
	"context"
	"errors"
)

// LocalClient is an in-process channel-backed queue for single-binary
// deployments and tests. Receive blocks until a message or context
// cancellation.
type LocalClient struct {
	messages chan Message
}

// NewLocalClient constructs a LocalClient with the given buffer size.
func NewLocalClient(buffer int) *LocalClient {
	if buffer <= 0 {
		buffer = 128
	}
	return &LocalClient{messages: make(chan Message, buffer)}
}

// ErrQueueFull indicates the in-process buffer is exhausted.
var ErrQueueFull = errors.New("local queue full")

// Send enqueues a message without blocking.
func (c *LocalClient) Send(ctx context.Context, msg Message) error {
	select {
	case c.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Receive returns the next message, blocking until one arrives.
func (c *LocalClient) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-c.messages:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

var _ Client = (*LocalClient)(nil)
