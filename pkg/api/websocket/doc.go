// Package websocket provides WebSocket streaming of submodel change events.
//
// Clients connect to /events/submodels and receive one JSON message per
// created, updated or deleted submodel. The optional "id" query parameter
// (base64url encoded, like the REST paths) restricts the stream to one
// submodel.
package websocket
