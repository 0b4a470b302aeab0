package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsPublisher implements ports.FramePublisher using Redis Streams
type StreamsPublisher struct {
	client    *redis.Client
	logger    *zap.Logger
	streamKey string
	maxLen    int64
}

// NewStreamsPublisher creates a publisher appending to the stream for topic.
// maxLen caps the stream approximately; 0 leaves it uncapped.
func NewStreamsPublisher(client *redis.Client, topic string, maxLen int64, logger *zap.Logger) *StreamsPublisher {
	return &StreamsPublisher{
		client:    client,
		logger:    logger,
		streamKey: getStreamKey(topic),
		maxLen:    maxLen,
	}
}

// Publish appends the frame event to the stream
func (p *StreamsPublisher) Publish(ctx context.Context, event ports.FrameEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal frame event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	p.logger.Debug("frame published",
		zap.String("event_id", event.ID),
		zap.String("session_id", event.SessionID),
		zap.String("stream", p.streamKey),
		zap.String("entry_id", id))

	return nil
}

// Close is a no-op; the Redis client is closed by its owner
func (p *StreamsPublisher) Close() error {
	return nil
}

// getStreamKey returns the Redis stream key for a topic
func getStreamKey(topic string) string {
	return fmt.Sprintf("u64feed:frames:%s", topic)
}
