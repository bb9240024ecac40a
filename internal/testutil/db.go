// Package testutil provides a throwaway history database for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/suar-net/suar-api/internal/config"
	"github.com/suar-net/suar-api/internal/database"
	"github.com/suar-net/suar-api/internal/logging"
)

// SetupTestDB creates a migrated SQLite database in the test's temp dir.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "history.db"),
	}
	db, err := database.ConnectDB(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})
	return db
}
