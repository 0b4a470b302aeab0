package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "u64feed:session:"

// SessionStore implements ports.SessionStore using Redis
type SessionStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewSessionStore creates a new Redis session store
func NewSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save persists the record with the store TTL
func (s *SessionStore) Save(ctx context.Context, record *ports.SessionRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record without id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, getSessionKey(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("session saved",
		zap.String("session_id", record.ID),
		zap.String("state", string(record.State)))

	return nil
}

// Load retrieves the record with id
func (s *SessionStore) Load(ctx context.Context, id string) (*ports.SessionRecord, error) {
	data, err := s.client.Get(ctx, getSessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var record ports.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &record, nil
}

// List returns every stored record, oldest first
func (s *SessionStore) List(ctx context.Context) ([]*ports.SessionRecord, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	records := make([]*ports.SessionRecord, 0, len(keys))
	for _, key := range keys {
		record, err := s.Load(ctx, key[len(sessionKeyPrefix):])
		if err != nil {
			// expired between SCAN and GET
			if errors.Is(err, ports.ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
	return records, nil
}

// Delete removes the record with id
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, getSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// getSessionKey returns the Redis key for a session record
func getSessionKey(id string) string {
	return sessionKeyPrefix + id
}
