// Package store defines the persistence contracts for schedule records,
// attempt history, curricula and users. Implementations live under
// internal/platform (postgres, redis, memory) and map their native errors to
// the sentinels declared here.
package store
