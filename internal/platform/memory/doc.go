// Package memory implements the internal/store interfaces in process memory.
// It backs the "memory" storage backend used for development and tests.
// Stored values are copied on the way in and out so callers never share
// state with the store.
package memory
