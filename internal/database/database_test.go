package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suar-net/suar-api/internal/config"
	"github.com/suar-net/suar-api/internal/logging"
	"github.com/suar-net/suar-api/internal/model"
)

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := config.DBConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "history.db")}

	db, err := ConnectDB(cfg, logging.Discard())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.HistoryRecord{}))
	for _, column := range []string{"Method", "Timestamp", "Collection", "IsFavorite"} {
		assert.True(t, db.Migrator().HasIndex(&model.HistoryRecord{}, column), "missing index on %s", column)
	}
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := ConnectDB(config.DBConfig{Driver: "oracle"}, logging.Discard())
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Contains(t, sqliteDSN("./database.sqlite"), "?_pragma=busy_timeout(5000)")
	assert.Contains(t, sqliteDSN("file.db?mode=rwc"), "&_pragma=journal_mode(WAL)")
}
