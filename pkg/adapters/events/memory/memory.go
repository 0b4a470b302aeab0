package memory

import (
	"context"
	"sync"

	"github.com/aescanero/u64feed/pkg/ports"
)

// FramePublisher implements ports.FramePublisher by keeping events in memory.
// It is a test double; production runs publish through Redis or not at all.
type FramePublisher struct {
	events []ports.FrameEvent
	limit  int
	mu     sync.RWMutex
}

// NewFramePublisher creates a publisher that keeps at most limit events.
// A limit of 0 keeps every event.
func NewFramePublisher(limit int) *FramePublisher {
	return &FramePublisher{limit: limit}
}

// Publish stores a copy of the event
func (p *FramePublisher) Publish(ctx context.Context, event ports.FrameEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event.Payload = append([]byte(nil), event.Payload...)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	if p.limit > 0 && len(p.events) > p.limit {
		p.events = p.events[len(p.events)-p.limit:]
	}
	return nil
}

// Events returns the stored events, oldest first
func (p *FramePublisher) Events() []ports.FrameEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	events := make([]ports.FrameEvent, len(p.events))
	copy(events, p.events)
	return events
}

// Close drops every stored event
func (p *FramePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = nil
	return nil
}
