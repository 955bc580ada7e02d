// Package health monitors the submodel store backend.
//
// The monitor pings the store on an interval, refreshes the store and
// submodel-count metrics, and serves the latest status to the HTTP health
// endpoint and the gRPC health service.
package health
