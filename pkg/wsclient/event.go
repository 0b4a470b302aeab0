package wsclient

import (
	"time"

	"github.com/gorilla/websocket"
)

// EventType identifies what happened on a session
type EventType int

const (
	EventOpen EventType = iota + 1
	EventMessage
	EventError
	EventClose
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// MessageType is the kind of a data frame
type MessageType int

const (
	TextMessage   MessageType = websocket.TextMessage
	BinaryMessage MessageType = websocket.BinaryMessage
)

func (m MessageType) String() string {
	switch m {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}

// Event is delivered on the session event channel
type Event struct {
	Type EventType
	At   time.Time

	// Set on message events
	MessageType MessageType
	Data        []byte

	// Set on error events
	Err error

	// Set on close events. Local is true when this side closed the connection.
	CloseCode int
	CloseText string
	Local     bool
}
