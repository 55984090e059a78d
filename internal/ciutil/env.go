package ciutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/recall-api/internal/redact"
)

// Environment variables read by this package.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	EnvDatabaseURL     = "DATABASE_URL"
	EnvRecallTestDBURL = "RECALL_TEST_DB_URL"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRecallTestRedis = "RECALL_TEST_REDIS_ADDR"
)

// IsCI reports whether the process runs under a known CI provider.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the first non-empty variable in envVars, or
// defaultValue. Using anything but the first name logs which one was picked.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, name := range envVars {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Debug("using fallback environment variable",
				slog.String("used_var", name),
				slog.String("preferred_var", envVars[0]),
				slog.String("value", MaskSensitiveValue(val)))
		}
		return val
	}
	return defaultValue
}

// MaskSensitiveValue hides credentials embedded in connection strings.
func MaskSensitiveValue(value string) string {
	return redact.String(value)
}
