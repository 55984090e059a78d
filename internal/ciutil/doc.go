// Package ciutil detects CI environments and resolves the connection
// settings integration tests use, so that a missing database fails loudly
// in CI and skips quietly on a laptop.
package ciutil
