// Package ports defines the interfaces between the feed client and its adapters.
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by SessionStore.Load for unknown ids
var ErrSessionNotFound = errors.New("session not found")

// FrameEvent is published for every data frame received from the endpoint
type FrameEvent struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Endpoint    string    `json:"endpoint"`
	MessageType string    `json:"message_type"`
	Payload     []byte    `json:"payload"`
	ReceivedAt  time.Time `json:"received_at"`
}

// FramePublisher publishes received frames to downstream consumers
type FramePublisher interface {
	Publish(ctx context.Context, event FrameEvent) error
	Close() error
}

// SessionState is the lifecycle state of one connection
type SessionState string

const (
	SessionStateConnecting SessionState = "connecting"
	SessionStateOpen       SessionState = "open"
	SessionStateClosed     SessionState = "closed"
)

// SessionRecord summarizes one connection for storage and the ops API
type SessionRecord struct {
	ID             string       `json:"id"`
	Endpoint       string       `json:"endpoint"`
	State          SessionState `json:"state"`
	GreetingSent   bool         `json:"greeting_sent"`
	FramesReceived int64        `json:"frames_received"`
	BytesReceived  int64        `json:"bytes_received"`
	LastError      string       `json:"last_error,omitempty"`
	CloseCode      int          `json:"close_code,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	OpenedAt       *time.Time   `json:"opened_at,omitempty"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
}

// SessionStore persists session records
type SessionStore interface {
	Save(ctx context.Context, record *SessionRecord) error
	Load(ctx context.Context, id string) (*SessionRecord, error)
	List(ctx context.Context) ([]*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// MetricsCollector records client metrics
type MetricsCollector interface {
	RecordConnection(result string, handshake time.Duration)
	RecordFrameReceived(messageType string, size int)
	RecordFrameSent(messageType string)
	RecordPing()
	RecordTransportError()
	RecordSessionClosed(reason string)
	SetSessionState(state SessionState)
}
