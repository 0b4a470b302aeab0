// Package events provides frame publisher implementations.
//
// Implementations:
//   - redis: Redis Streams, one entry per received frame
//   - memory: In-memory, for tests. Without Redis the client publishes nothing.
package events
