package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/u64feed/pkg/ports"
)

// SessionStore implements ports.SessionStore using an in-memory map
type SessionStore struct {
	records map[string]ports.SessionRecord
	mu      sync.RWMutex
}

// NewSessionStore creates a new in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		records: make(map[string]ports.SessionRecord),
	}
}

// Save stores a copy of the record
func (s *SessionStore) Save(ctx context.Context, record *ports.SessionRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = *record
	return nil
}

// Load returns a copy of the record with id
func (s *SessionStore) Load(ctx context.Context, id string) (*ports.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrSessionNotFound, id)
	}
	return &record, nil
}

// List returns every record, oldest first
func (s *SessionStore) List(ctx context.Context) ([]*ports.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*ports.SessionRecord, 0, len(s.records))
	for _, record := range s.records {
		r := record
		records = append(records, &r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
	return records, nil
}

// Delete removes the record with id
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}
