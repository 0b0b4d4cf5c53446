package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

var (
	// shared across every integration test of a package run
	globalContainer *PostgresContainer
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a real PostgreSQL database for integration tests
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and connects to it.
// Tests calling it are skipped under -short.
//
// Usage:
//
//	func TestCandidateRepository_Integration(t *testing.T) {
//	    suite := testutil.NewIntegrationSuite(t)
//	    repo := repository.NewCandidateRepository(suite.DB)
//	    require.NoError(t, repo.EnsureSchema(ctx))
//	    suite.Truncate(t, "candidates")
//	}
func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
	})
	if containerErr != nil {
		t.Fatalf("failed to start postgres container: %v", containerErr)
	}

	log := logger.Nop()
	db, err := database.NewWithDSN(globalContainer.DSN, log)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        db,
		Logger:    log,
	}
}

// Truncate empties the given tables and resets their identity sequences
func (s *IntegrationSuite) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := s.DB.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY"); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// TerminateContainer stops the shared container. Call it from TestMain after m.Run.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}
