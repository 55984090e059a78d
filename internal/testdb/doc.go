// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database. Every helper skips the calling test when no database
// URL is configured, so `go test -tags=integration ./...` is safe to run
// anywhere.
package testdb
