// ABOUTME: Tests for the migration runner.
// ABOUTME: Covers ordering, idempotence, mid-file failure handling and re-invocation.

package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApply_EmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := NewRunner(db, Files())
	applied, err := r.Apply(ctx)
	require.NoError(t, err)
	assert.Greater(t, applied, 0)

	// Every table the module depends on must exist afterwards.
	for _, table := range []string{"clipboard_items", "backup_restore_logs", "preferences", "application_state", "shortcut_registrations", "schema_migrations"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestApply_SecondRunIsNoop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db, Files())

	_, err := r.Apply(ctx)
	require.NoError(t, err)
	v1, err := r.Version(ctx)
	require.NoError(t, err)

	applied, err := r.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, applied, "second run should apply nothing")

	v2, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "schema version should be unchanged")
}

func TestApply_OrderAndRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"0002_add_column.sql": {Data: []byte(`ALTER TABLE widgets ADD COLUMN name TEXT;`)},
		"0001_create.sql":     {Data: []byte(`CREATE TABLE widgets (id INTEGER PRIMARY KEY);`)},
	}

	r := NewRunner(db, fsys)
	applied, err := r.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	records, err := r.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Version)
	assert.Equal(t, "0001_create.sql", records[0].Name)
	assert.Equal(t, int64(2), records[1].Version)
	assert.Equal(t, "0002_add_column.sql", records[1].Name)
	assert.False(t, records[0].AppliedAt.IsZero())
}

func TestApply_FailureHaltsAndIsResumable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	broken := fstest.MapFS{
		"0001_create.sql": {Data: []byte(`CREATE TABLE widgets (id INTEGER PRIMARY KEY);`)},
		"0002_bad.sql": {Data: []byte(`
			INSERT INTO widgets (id) VALUES (1);
			INSERT INTO no_such_table (id) VALUES (2);
		`)},
	}

	r := NewRunner(db, broken)
	applied, err := r.Apply(ctx)
	assert.Equal(t, 1, applied, "first file applies before the failure")
	require.Error(t, err)

	var merr *MigrationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "0002_bad.sql", merr.File)

	// The failed file's transaction rolled back: no partial application.
	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM widgets`).Scan(&count))
	assert.Equal(t, 0, count)

	version, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Fixing the file and re-running applies only the pending migration.
	fixed := fstest.MapFS{
		"0001_create.sql": broken["0001_create.sql"],
		"0002_bad.sql":    {Data: []byte(`INSERT INTO widgets (id) VALUES (1);`)},
	}
	applied, err = NewRunner(db, fixed).Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
		-- leading comment
		CREATE TABLE a (id INTEGER);

		-- another comment
		CREATE INDEX idx_a ON a(id);
	`)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Contains(t, stmts[1], "CREATE INDEX idx_a")
}
