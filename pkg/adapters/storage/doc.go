// Package storage provides session record storage implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - memory: In-memory map, the default when Redis is not configured
package storage
