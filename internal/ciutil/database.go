package ciutil

import "log/slog"

// TestDatabaseURL returns the postgres URL for integration tests, or "".
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvDatabaseURL, EnvRecallTestDBURL}, "", logger)
}

// TestRedisAddr returns the redis host:port for integration tests, or "".
func TestRedisAddr(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvRedisAddr, EnvRecallTestRedis}, "", logger)
}
