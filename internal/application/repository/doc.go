// Package repository implements the submodel repository operations.
//
// The manager coordinates every operation by:
//   - Resolving ids and content variants against the submodel store
//   - Serializing writers per submodel id
//   - Publishing lifecycle events to the event bus
//   - Recording operation metrics
//
// Seed loads preconfigured submodels at startup.
package repository
