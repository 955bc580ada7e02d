// Package storage provides submodel store implementations.
//
// Implementations:
//   - memory: In-memory map, used for tests and single-node deployments
//   - redis: Redis with one JSON document per key
//   - sqlite: SQLite table with embedded migrations
package storage
