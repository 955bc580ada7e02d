// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Submodel listing, retrieval (full, metadata or value content), creation,
//     replacement and deletion under /submodels and /api/v1/submodels
//   - Submodel change event streaming over WebSocket
//   - Health checks
//   - Prometheus metrics
//
// Submodel ids appear in paths base64url encoded.
package http
