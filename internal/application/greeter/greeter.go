package greeter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/aescanero/u64feed/pkg/wsclient"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Greeter sends the greeting on open and reports everything the endpoint sends back
type Greeter struct {
	greeting  []byte
	stdout    io.Writer
	stderr    io.Writer
	publisher ports.FramePublisher
	store     ports.SessionStore
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*ports.SessionRecord
	current  *ports.SessionRecord
}

// Config holds greeter configuration
type Config struct {
	Greeting string

	// Console writers, default to os.Stdout and os.Stderr
	Stdout io.Writer
	Stderr io.Writer

	Publisher ports.FramePublisher
	Store     ports.SessionStore
	Logger    *zap.Logger
}

// NewGreeter creates a new greeter
func NewGreeter(cfg *Config) *Greeter {
	g := &Greeter{
		greeting:  []byte(cfg.Greeting),
		stdout:    cfg.Stdout,
		stderr:    cfg.Stderr,
		publisher: cfg.Publisher,
		store:     cfg.Store,
		logger:    cfg.Logger,
		sessions:  make(map[string]*ports.SessionRecord),
	}

	if g.stdout == nil {
		g.stdout = os.Stdout
	}
	if g.stderr == nil {
		g.stderr = os.Stderr
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}

	return g
}

// Run opens one session with client and handles it until it ends. It returns
// the final session record and the transport error that ended it, if any.
func (g *Greeter) Run(ctx context.Context, client *wsclient.Client) (*ports.SessionRecord, error) {
	s := client.Connect(ctx)

	record := &ports.SessionRecord{
		ID:        s.ID(),
		Endpoint:  s.Endpoint(),
		State:     ports.SessionStateConnecting,
		StartedAt: time.Now(),
	}

	g.mu.Lock()
	g.sessions[record.ID] = record
	g.current = record
	g.mu.Unlock()

	g.save(ctx, record)

	err := wsclient.Dispatch(ctx, s, g)

	g.mu.Lock()
	delete(g.sessions, record.ID)
	final := *record
	g.mu.Unlock()

	return &final, err
}

// CurrentState returns the state of the most recent session
func (g *Greeter) CurrentState() ports.SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return ports.SessionStateConnecting
	}
	return g.current.State
}

// OnOpen sends the greeting once
func (g *Greeter) OnOpen(ctx context.Context, s *wsclient.Session) {
	g.logger.Info("session open",
		zap.String("session_id", s.ID()),
		zap.String("endpoint", s.Endpoint()))

	now := time.Now()
	g.update(ctx, s.ID(), func(r *ports.SessionRecord) {
		r.State = ports.SessionStateOpen
		r.OpenedAt = &now
	})

	if err := s.SendText(g.greeting); err != nil {
		// the read side reports the broken connection
		g.logger.Error("failed to send greeting",
			zap.String("session_id", s.ID()),
			zap.Error(err))
		return
	}

	g.update(ctx, s.ID(), func(r *ports.SessionRecord) {
		r.GreetingSent = true
	})
}

// OnMessage prints the payload verbatim and publishes it
func (g *Greeter) OnMessage(ctx context.Context, s *wsclient.Session, ev wsclient.Event) {
	fmt.Fprintf(g.stdout, "received: %s\n", ev.Data)

	g.update(ctx, s.ID(), func(r *ports.SessionRecord) {
		r.FramesReceived++
		r.BytesReceived += int64(len(ev.Data))
	})

	if g.publisher == nil {
		return
	}

	frame := ports.FrameEvent{
		ID:          uuid.New().String(),
		SessionID:   s.ID(),
		Endpoint:    s.Endpoint(),
		MessageType: ev.MessageType.String(),
		Payload:     ev.Data,
		ReceivedAt:  ev.At,
	}
	if err := g.publisher.Publish(ctx, frame); err != nil {
		g.logger.Error("failed to publish frame",
			zap.String("session_id", s.ID()),
			zap.String("event_id", frame.ID),
			zap.Error(err))
	}
}

// OnError reports the transport error. Nothing is retried.
func (g *Greeter) OnError(ctx context.Context, s *wsclient.Session, err error) {
	fmt.Fprintf(g.stderr, "error %v\n", err)

	g.logger.Debug("transport error",
		zap.String("session_id", s.ID()),
		zap.Error(err))

	now := time.Now()
	g.update(ctx, s.ID(), func(r *ports.SessionRecord) {
		r.State = ports.SessionStateClosed
		r.LastError = err.Error()
		r.ClosedAt = &now
	})
}

// OnClose reports a close initiated by the peer
func (g *Greeter) OnClose(ctx context.Context, s *wsclient.Session, ev wsclient.Event) {
	if !ev.Local {
		fmt.Fprintln(g.stdout, "server closed")
	}

	g.logger.Info("session closed",
		zap.String("session_id", s.ID()),
		zap.Int("code", ev.CloseCode),
		zap.Bool("local", ev.Local))

	now := time.Now()
	g.update(ctx, s.ID(), func(r *ports.SessionRecord) {
		r.State = ports.SessionStateClosed
		r.CloseCode = ev.CloseCode
		r.ClosedAt = &now
	})
}

// update applies fn to the live record of a session and saves a snapshot
func (g *Greeter) update(ctx context.Context, id string, fn func(r *ports.SessionRecord)) {
	g.mu.Lock()
	record, ok := g.sessions[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	fn(record)
	snapshot := *record
	g.mu.Unlock()

	g.save(ctx, &snapshot)
}

func (g *Greeter) save(ctx context.Context, record *ports.SessionRecord) {
	if g.store == nil {
		return
	}

	// a cancelled run still records its final state
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := g.store.Save(saveCtx, record); err != nil {
		g.logger.Error("failed to save session",
			zap.String("session_id", record.ID),
			zap.Error(err))
	}
}
