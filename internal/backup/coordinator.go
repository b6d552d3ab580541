// ABOUTME: Backup Coordinator performing ATTACH-based whole-store snapshots.
// ABOUTME: Records every attempt in the backup_restore_logs job ledger.

package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/thuanpham582002/ClipBook/internal/migrate"
)

// metadataVersion is the snapshot file format version.
const metadataVersion = 1

// appVersion is stamped into job metadata. Overridden at build time
// via -ldflags.
var appVersion = "dev"

// timeLayout is fixed-width so TEXT comparison sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// defaultHistoryLimit caps History result sets when no limit is given.
const defaultHistoryLimit = 50

// autoBackupPrefix names files produced by ScheduleAutomatic.
const autoBackupPrefix = "clipbook_auto_backup_"

// dataTables are copied into a snapshot. schema_migrations is excluded:
// the snapshot's schema is created by the migration runner, which
// populates it.
var dataTables = []string{
	"clipboard_items",
	"preferences",
	"application_state",
	"shortcut_registrations",
	"backup_restore_logs",
}

// restoreTables are cleared and repopulated during a restore. The live
// job ledger is deliberately not replaced: it is append-only and must
// record the restore itself.
var restoreTables = []string{
	"clipboard_items",
	"preferences",
	"application_state",
	"shortcut_registrations",
}

// Coordinator performs whole-store snapshot and restore operations
// against the live database. Safe for concurrent use with store reads
// and writes; the copy itself runs inside one immediate transaction.
type Coordinator struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

// NewCoordinator wires a coordinator to the live database handle and
// its on-disk path.
func NewCoordinator(db *sql.DB, dbPath string) *Coordinator {
	return &Coordinator{
		db:     db,
		dbPath: dbPath,
		logger: slog.Default().With("component", "backup"),
	}
}

// Backup snapshots the whole store to path, creating parent directories
// as needed. The outcome is recorded as a ledger job: operational
// failures produce a Failed job with a nil error so history is
// preserved. A non-nil error means the ledger itself could not be
// written.
func (c *Coordinator) Backup(ctx context.Context, path string) (*Job, error) {
	job := c.newJob(OpBackup, path)

	if err := c.snapshotTo(ctx, path); err != nil {
		c.logger.Error("backup failed", "path", path, "error", err)
		return c.finishJob(ctx, job, err)
	}

	if info, err := os.Stat(path); err == nil {
		job.FileSizeBytes = info.Size()
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clipboard_items`).Scan(&job.ItemsCount); err != nil {
		c.logger.Warn("counting items after backup", "error", err)
	}

	c.logger.Info("backup completed", "path", path,
		"size_bytes", job.FileSizeBytes, "items", job.ItemsCount)
	return c.finishJob(ctx, job, nil)
}

// Restore replaces the live store's contents with the snapshot at path.
// The target must exist (ErrBackupNotFound otherwise). A safety
// snapshot of the live store is attempted first; its failure is logged
// but does not block the restore. The migration runner is re-applied
// afterwards so a snapshot taken under an older schema is brought
// forward.
func (c *Coordinator) Restore(ctx context.Context, path string) (*Job, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrBackupNotFound
	}

	job := c.newJob(OpRestore, path)

	sidecar := filepath.Join(filepath.Dir(c.dbPath),
		fmt.Sprintf("pre_restore_%s.db", time.Now().UTC().Format("20060102_150405")))
	if err := c.snapshotTo(ctx, sidecar); err != nil {
		c.logger.Warn("safety backup before restore failed", "path", sidecar, "error", err)
	} else {
		c.logger.Info("safety backup written", "path", sidecar)
	}

	if err := c.copyIn(ctx, path); err != nil {
		c.logger.Error("restore failed", "path", path, "error", err)
		return c.finishJob(ctx, job, err)
	}

	// Bring an older-schema snapshot forward.
	if _, err := migrate.NewRunner(c.db, migrate.Files()).Apply(ctx); err != nil {
		c.logger.Error("post-restore migration failed", "error", err)
		return c.finishJob(ctx, job, err)
	}

	if info, err := os.Stat(path); err == nil {
		job.FileSizeBytes = info.Size()
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clipboard_items`).Scan(&job.ItemsCount); err != nil {
		c.logger.Warn("counting items after restore", "error", err)
	}

	c.logger.Info("restore completed", "path", path, "items", job.ItemsCount)
	return c.finishJob(ctx, job, nil)
}

// ScheduleAutomatic writes a timestamp-named snapshot into dir.
func (c *Coordinator) ScheduleAutomatic(ctx context.Context, dir string) (*Job, error) {
	name := autoBackupPrefix + time.Now().UTC().Format("20060102_150405") + ".db"
	return c.Backup(ctx, filepath.Join(dir, name))
}

// Prune deletes the oldest .db files in dir beyond keep, ordered by
// modification time, and returns the count removed. An absent
// directory is a no-op.
func (c *Coordinator) Prune(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var files []candidate
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".db" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if keep < 0 {
		keep = 0
	}
	if len(files) <= keep {
		return 0, nil
	}

	// Newest first; everything past keep goes.
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.After(files[j].mtime) })
	removed := 0
	for _, f := range files[keep:] {
		if err := os.Remove(f.path); err != nil {
			c.logger.Warn("pruning backup file", "path", f.path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		c.logger.Info("pruned old backups", "dir", dir, "removed", removed, "kept", keep)
	}
	return removed, nil
}

// History returns ledger jobs newest first, at most limit of them.
// A non-positive limit selects the default of 50.
func (c *Coordinator) History(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT job_id, operation_type, status, file_path, file_size_bytes,
		       items_count, start_time, end_time, error_message, metadata
		FROM backup_restore_logs ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job ledger: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var (
			j          Job
			op, status string
			start      string
			end        sql.NullString
			errMsg     sql.NullString
			size       sql.NullInt64
			items      sql.NullInt64
			meta       sql.NullString
		)
		if err := rows.Scan(&j.ID, &op, &status, &j.FilePath, &size,
			&items, &start, &end, &errMsg, &meta); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		j.Operation = Operation(op)
		j.Status = Status(status)
		j.FileSizeBytes = size.Int64
		j.ItemsCount = int(items.Int64)
		j.ErrorMessage = errMsg.String
		if j.StartTime, err = time.Parse(timeLayout, start); err != nil {
			return nil, fmt.Errorf("parsing start_time: %w", err)
		}
		if end.Valid && end.String != "" {
			if j.EndTime, err = time.Parse(timeLayout, end.String); err != nil {
				return nil, fmt.Errorf("parsing end_time: %w", err)
			}
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &j.Metadata); err != nil {
				return nil, fmt.Errorf("parsing job metadata: %w", err)
			}
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// newJob stamps a fresh job at the current time.
func (c *Coordinator) newJob(op Operation, path string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Operation: op,
		FilePath:  path,
		StartTime: now,
		Metadata: Metadata{
			Version:    metadataVersion,
			AppVersion: appVersion,
			CreatedAt:  now.Format(time.RFC3339),
		},
	}
}

// finishJob marks the job terminal and appends it to the ledger.
func (c *Coordinator) finishJob(ctx context.Context, job *Job, opErr error) (*Job, error) {
	job.EndTime = time.Now().UTC()
	if opErr != nil {
		job.Status = StatusFailed
		job.ErrorMessage = opErr.Error()
	} else {
		job.Status = StatusCompleted
	}

	meta, err := json.Marshal(job.Metadata)
	if err != nil {
		return job, fmt.Errorf("encoding job metadata: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO backup_restore_logs
		(job_id, operation_type, status, file_path, file_size_bytes,
		 items_count, start_time, end_time, error_message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Operation), string(job.Status), job.FilePath,
		job.FileSizeBytes, job.ItemsCount,
		job.StartTime.Format(timeLayout), job.EndTime.Format(timeLayout),
		job.ErrorMessage, string(meta))
	if err != nil {
		return job, fmt.Errorf("recording job: %w", err)
	}
	return job, nil
}

// snapshotTo copies every data table into a fresh snapshot at path. The
// snapshot schema is created up front by the migration runner, so a
// per-table copy failure means a genuinely damaged table; those are
// logged and skipped rather than aborting the snapshot.
func (c *Coordinator) snapshotTo(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	// Stale targets would collide with the copy below.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale backup file: %w", err)
	}

	snap, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	if _, err := migrate.NewRunner(snap, migrate.Files()).Apply(ctx); err != nil {
		snap.Close()
		return fmt.Errorf("preparing backup schema: %w", err)
	}
	if err := snap.Close(); err != nil {
		return fmt.Errorf("closing backup file: %w", err)
	}

	return c.withAttached(ctx, path, func(conn *sql.Conn) error {
		for _, table := range dataTables {
			_, err := conn.ExecContext(ctx, fmt.Sprintf(
				`INSERT INTO backup_db.%s SELECT * FROM main.%s`, table, table))
			if err != nil {
				c.logger.Warn("skipping table during backup", "table", table, "error", err)
			}
		}
		return nil
	})
}

// copyIn clears the live mutable tables and repopulates them from the
// snapshot at path, all inside one immediate transaction so no reader
// observes a partially cleared store.
func (c *Coordinator) copyIn(ctx context.Context, path string) error {
	return c.withAttached(ctx, path, func(conn *sql.Conn) error {
		for _, table := range restoreTables {
			if _, err := conn.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM main.%s`, table)); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
			_, err := conn.ExecContext(ctx, fmt.Sprintf(
				`INSERT INTO main.%s SELECT * FROM backup_db.%s`, table, table))
			if err != nil {
				c.logger.Warn("skipping table during restore", "table", table, "error", err)
			}
		}
		return nil
	})
}

// withAttached runs fn inside an immediate transaction with the file at
// path attached as backup_db. ATTACH is per-connection state, so the
// whole sequence is pinned to one pooled connection.
func (c *Coordinator) withAttached(ctx context.Context, path string, fn func(*sql.Conn) error) error {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS backup_db`, path); err != nil {
		return fmt.Errorf("attaching %s: %w", path, err)
	}
	defer func() {
		if _, err := conn.ExecContext(ctx, `DETACH DATABASE backup_db`); err != nil {
			c.logger.Warn("detaching backup database", "error", err)
		}
	}()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(conn); err != nil {
		if _, rbErr := conn.ExecContext(ctx, `ROLLBACK`); rbErr != nil {
			c.logger.Warn("rolling back", "error", rbErr)
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}
