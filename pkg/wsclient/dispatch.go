package wsclient

import "context"

// Handler reacts to session events. Dispatch calls it from one goroutine.
type Handler interface {
	OnOpen(ctx context.Context, s *Session)
	OnMessage(ctx context.Context, s *Session, ev Event)
	OnError(ctx context.Context, s *Session, err error)
	OnClose(ctx context.Context, s *Session, ev Event)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Open    func(ctx context.Context, s *Session)
	Message func(ctx context.Context, s *Session, ev Event)
	Error   func(ctx context.Context, s *Session, err error)
	Close   func(ctx context.Context, s *Session, ev Event)
}

func (h HandlerFuncs) OnOpen(ctx context.Context, s *Session) {
	if h.Open != nil {
		h.Open(ctx, s)
	}
}

func (h HandlerFuncs) OnMessage(ctx context.Context, s *Session, ev Event) {
	if h.Message != nil {
		h.Message(ctx, s, ev)
	}
}

func (h HandlerFuncs) OnError(ctx context.Context, s *Session, err error) {
	if h.Error != nil {
		h.Error(ctx, s, err)
	}
}

func (h HandlerFuncs) OnClose(ctx context.Context, s *Session, ev Event) {
	if h.Close != nil {
		h.Close(ctx, s, ev)
	}
}

// Dispatch delivers every event of s to h, in order, until the event channel
// closes. It returns the transport error that ended the session, or nil when
// the session ended with a close.
func Dispatch(ctx context.Context, s *Session, h Handler) error {
	var lastErr error

	for ev := range s.Events() {
		switch ev.Type {
		case EventOpen:
			h.OnOpen(ctx, s)
		case EventMessage:
			h.OnMessage(ctx, s, ev)
		case EventError:
			lastErr = ev.Err
			h.OnError(ctx, s, ev.Err)
		case EventClose:
			h.OnClose(ctx, s, ev)
		}
	}

	return lastErr
}
