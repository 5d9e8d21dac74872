package queue

import (
	"encoding/json"
	"time"
)

// CurrentVersion is stamped on every outgoing task message. Consumers use
// it to detect payloads written by a newer producer.
const CurrentVersion = 1

// Message is the task envelope sent to pipeline workers. It carries only
// the task id; workers load the task record to learn what to run.
type Message struct {
	TaskID     string `json:"taskId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewTaskMessage builds the envelope for a scheduled task.
func NewTaskMessage(taskID, requestID string, enqueuedAt time.Time) Message {
	return Message{
		TaskID:     taskID,
		RequestID:  requestID,
		EnqueuedAt: enqueuedAt.UTC().Format(time.RFC3339),
		Version:    CurrentVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
