package wsclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotOpen is returned when sending on a session that is not open
var ErrNotOpen = errors.New("session is not open")

// State is the lifecycle state of a session
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	return string(s.Port())
}

// Port converts the state to its storage representation
func (s State) Port() ports.SessionState {
	switch s {
	case StateConnecting:
		return ports.SessionStateConnecting
	case StateOpen:
		return ports.SessionStateOpen
	default:
		return ports.SessionStateClosed
	}
}

// Session is one connection attempt and, if it succeeds, one open connection
type Session struct {
	id     string
	client *Client
	logger *zap.Logger

	state  atomic.Int32
	events chan Event
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	connMu sync.RWMutex
	conn   *websocket.Conn

	// gorilla allows one concurrent writer for data frames
	writeMu sync.Mutex

	keepalive *keepalive
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Endpoint returns the endpoint the session dials
func (s *Session) Endpoint() string {
	return s.client.endpoint.String()
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Events returns the event channel. It is closed after the last event.
// Consumers must drain it until it is closed.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed once the session has fully terminated
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SendText sends one text frame
func (s *Session) SendText(data []byte) error {
	return s.send(TextMessage, data)
}

// Close closes the session with a normal closure. It does not wait for the
// session to terminate; use Done for that.
func (s *Session) Close() error {
	s.cancel()
	return nil
}

func (s *Session) send(mt MessageType, data []byte) error {
	conn := s.currentConn()
	if conn == nil || s.State() != StateOpen {
		return ErrNotOpen
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(s.client.writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(int(mt), data); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", mt, err)
	}

	s.client.metrics.RecordFrameSent(mt.String())
	s.logger.Debug("frame sent",
		zap.String("type", mt.String()),
		zap.Int("size", len(data)))

	return nil
}

func (s *Session) currentConn() *websocket.Conn {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	s.client.metrics.SetSessionState(state.Port())
}

func (s *Session) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.events <- ev
}

// run is the session lifecycle: dial, read until failure or close, terminate
func (s *Session) run() {
	defer close(s.done)
	defer close(s.events)
	defer s.cancel()

	s.logger.Debug("connecting")

	start := time.Now()
	conn, err := s.client.dial(s.ctx)
	if err != nil {
		s.setState(StateClosed)
		s.client.metrics.RecordConnection("failed", time.Since(start))

		if s.ctx.Err() != nil {
			s.client.metrics.RecordSessionClosed("local")
			s.emit(Event{Type: EventClose, CloseCode: websocket.CloseNormalClosure, Local: true})
			return
		}

		s.client.metrics.RecordTransportError()
		s.client.metrics.RecordSessionClosed("error")
		s.emit(Event{Type: EventError, Err: err})
		return
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.client.metrics.RecordConnection("success", time.Since(start))
	s.setState(StateOpen)
	s.logger.Info("connection established",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Duration("handshake", time.Since(start)))

	s.emit(Event{Type: EventOpen})

	readerDone := make(chan struct{})
	go s.watchContext(conn, readerDone)

	if s.client.pingInterval > 0 {
		s.keepalive = newKeepalive(s, conn, s.client.pingInterval)
		s.keepalive.Start()
	}

	err = s.readLoop(conn)
	close(readerDone)

	if s.keepalive != nil {
		s.keepalive.Stop()
	}
	_ = conn.Close()

	s.setState(StateClosed)
	s.emit(s.terminalEvent(err))
}

func (s *Session) readLoop(conn *websocket.Conn) error {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msgType := MessageType(mt)
		s.client.metrics.RecordFrameReceived(msgType.String(), len(data))
		s.emit(Event{Type: EventMessage, MessageType: msgType, Data: data})
	}
}

// terminalEvent maps the read error that ended the session to its event
func (s *Session) terminalEvent(err error) Event {
	if s.ctx.Err() != nil {
		s.client.metrics.RecordSessionClosed("local")
		s.logger.Info("connection closed locally")
		return Event{Type: EventClose, CloseCode: websocket.CloseNormalClosure, Local: true}
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
		s.client.metrics.RecordSessionClosed("remote")
		s.logger.Info("connection closed by peer",
			zap.Int("code", closeErr.Code),
			zap.String("text", closeErr.Text))
		return Event{Type: EventClose, CloseCode: closeErr.Code, CloseText: closeErr.Text}
	}

	s.client.metrics.RecordTransportError()
	s.client.metrics.RecordSessionClosed("error")
	return Event{Type: EventError, Err: fmt.Errorf("connection lost: %w", err)}
}

// watchContext closes the connection with a normal closure when the session
// context ends before the reader does
func (s *Session) watchContext(conn *websocket.Conn, readerDone <-chan struct{}) {
	select {
	case <-readerDone:
		return
	case <-s.ctx.Done():
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.client.writeTimeout)); err != nil {
		s.logger.Debug("failed to send close frame", zap.Error(err))
	}
	_ = conn.Close()
}
