// Package events provides event bus implementations.
//
// Implementations:
//   - redis: Redis Streams, broadcast or consumer-group delivery
//   - memory: In-process fan-out
package events
