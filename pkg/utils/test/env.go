package test

import (
	"os"
	"testing"
)

// EnvVars holds environment values required by an integration test.
type EnvVars map[string]string

// NewEnvVars skips t unless every key is set and non-empty.
func NewEnvVars(t testing.TB, keys ...string) EnvVars {
	t.Helper()

	vars := make(EnvVars, len(keys))
	var missing []string
	for _, key := range keys {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
			continue
		}
		vars[key] = value
	}
	if len(missing) > 0 {
		t.Skipf("skipping integration test, missing env: %v", missing)
	}

	return vars
}

// Get returns the value of key, failing the test flow with a panic when the
// key was not requested from NewEnvVars.
func (e EnvVars) Get(key string) string {
	v, ok := e[key]
	if !ok {
		panic("env var " + key + " was not requested")
	}
	return v
}
