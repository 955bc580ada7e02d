// Package config provides configuration management for the submodel repository.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use: an
// in-memory store and event bus listening on ports 8080 (HTTP) and 9090 (gRPC).
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
