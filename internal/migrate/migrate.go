// ABOUTME: Versioned schema migration runner over an fs.FS of SQL files.
// ABOUTME: Applies each file exactly once, in filename order, inside its own transaction.

package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// MigrationError reports a failure while applying one migration file.
type MigrationError struct {
	File string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s: %v", e.File, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// Record is one row of the schema_migrations tracking table.
type Record struct {
	Version   int64
	Name      string
	AppliedAt time.Time
}

// Runner applies pending schema migrations. Filenames must encode order
// (zero-padded sequence prefix); the file's position in the sorted listing
// is its version.
type Runner struct {
	db     *sql.DB
	fsys   fs.FS
	logger *slog.Logger
}

// NewRunner creates a runner over the given database handle and migration
// file system.
func NewRunner(db *sql.DB, fsys fs.FS) *Runner {
	return &Runner{
		db:     db,
		fsys:   fsys,
		logger: slog.Default().With("component", "migrate"),
	}
}

// Apply brings the schema to the latest available version and returns the
// number of migrations applied. Re-invocation is idempotent: files at or
// below the recorded version are skipped. A statement failure aborts that
// file's transaction and halts the run; earlier files stay applied.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	current, err := r.ensureVersion(ctx)
	if err != nil {
		return 0, err
	}

	files, err := fs.Glob(r.fsys, "*.sql")
	if err != nil {
		return 0, fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(files)

	applied := 0
	for i, name := range files {
		version := int64(i + 1)
		if version <= current {
			continue
		}
		if err := r.applyFile(ctx, version, name); err != nil {
			return applied, err
		}
		applied++
	}

	if applied > 0 {
		r.logger.Info("migrations applied", "count", applied, "version", current+int64(applied))
	}
	return applied, nil
}

// Version returns the highest applied migration version, 0 if none.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	return r.ensureVersion(ctx)
}

// Records returns all applied migrations in version order.
func (r *Runner) Records(ctx context.Context) ([]Record, error) {
	if _, err := r.ensureVersion(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT version, name, applied_at FROM schema_migrations ORDER BY version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying migration records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var appliedAt string
		if err := rows.Scan(&rec.Version, &rec.Name, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration record: %w", err)
		}
		rec.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ensureVersion creates the tracking table if absent and returns the
// highest applied version.
func (r *Runner) ensureVersion(ctx context.Context) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var version int64
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// applyFile runs one migration file's statements and records it, all
// inside a single transaction.
func (r *Runner) applyFile(ctx context.Context, version int64, name string) error {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return &MigrationError{File: name, Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &MigrationError{File: name, Err: err}
	}

	for _, stmt := range splitStatements(string(data)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &MigrationError{File: name, Err: err}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)
	`, version, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		_ = tx.Rollback()
		return &MigrationError{File: name, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &MigrationError{File: name, Err: err}
	}

	r.logger.Info("applied migration", "version", version, "file", name)
	return nil
}

// splitStatements breaks a migration file into individual statements.
// Line comments are stripped; empty fragments are dropped.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
