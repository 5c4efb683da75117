//go:build integration

// Package containers holds testcontainers fixtures for the integration
// suites. One Postgres is started per test binary and shared by its suites,
// which truncate their own tables in SetupTest.
package containers

import (
	"sync"
	"testing"
)

var (
	sharedMu       sync.Mutex
	sharedPostgres *PostgresContainer
)

// Postgres returns the package-wide container, starting it on first use.
func Postgres(t *testing.T) *PostgresContainer {
	t.Helper()

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedPostgres == nil {
		sharedPostgres = NewPostgresContainer(t)
	}
	return sharedPostgres
}
