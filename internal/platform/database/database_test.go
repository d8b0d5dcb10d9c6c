package database

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasks-api/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// openTestDB opens a private in-memory SQLite database with the schema
// migrated to the latest version.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, dialect, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"})
	require.NoError(t, err)
	require.Equal(t, DialectSQLite, dialect)
	t.Cleanup(func() { _ = db.Close() })

	m, err := NewMigrator(db, dialect, discardLogger())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	return db
}
