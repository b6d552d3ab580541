// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides clipboard item persistence with migrations, dedup and metrics

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thuanpham582002/ClipBook/internal/dedupe"
	"github.com/thuanpham582002/ClipBook/internal/metrics"
	"github.com/thuanpham582002/ClipBook/internal/migrate"
)

// timeLayout is fixed-width so TEXT comparison and ORDER BY sort
// chronologically. RFC3339Nano trims trailing zeros and breaks that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// defaultListLimit caps List and Search result sets.
const defaultListLimit = 100

// seenTTL and seenMaxEntries bound the in-memory dedup cache.
const (
	seenTTL        = 24 * time.Hour
	seenMaxEntries = 4096
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	logger    *slog.Logger
	collector *metrics.Collector
	seen      *dedupe.Cache
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path, runs
// pending migrations and wires the dedup cache and metrics collector.
// Parent directories are created if needed.
func NewSQLiteStore(path string, collector *metrics.Collector) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	runner := migrate.NewRunner(db, migrate.Files())
	applied, err := runner.Apply(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	if applied > 0 {
		logger.Info("applied migrations", "count", applied)
	}

	if collector == nil {
		collector = metrics.NewCollector(logger)
	}

	s := &SQLiteStore{
		db:        db,
		logger:    logger,
		collector: collector,
		seen:      dedupe.New(seenTTL, seenMaxEntries),
	}

	logger.Info("sqlite store initialized", "path", path)
	return s, nil
}

// DB exposes the underlying handle for the backup coordinator, which
// needs a dedicated connection for ATTACH.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Metrics returns the operation counters accumulated since start.
func (s *SQLiteStore) Metrics() metrics.Snapshot {
	return s.collector.Snapshot()
}

// Close releases the dedup cache and the database handle.
func (s *SQLiteStore) Close() error {
	s.seen.Close()
	return s.db.Close()
}

// observe wraps one store operation with duration and error accounting.
func (s *SQLiteStore) observe(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.collector.Observe(name, time.Since(start), err)
	return err
}

// Save validates and persists an item, upserting by id. If an item with
// byte-identical content already exists the save is a successful no-op,
// checked first against the in-memory cache and then inside the
// transaction so concurrent writers cannot race past it.
func (s *SQLiteStore) Save(ctx context.Context, item *Item) error {
	return s.observe("save", func() error {
		if err := item.Validate(); err != nil {
			return err
		}

		key := dedupe.Key(item.Content)
		if s.seen.Check(key) {
			s.collector.CacheHit()
			s.logger.Debug("duplicate content skipped", "id", item.ID)
			return nil
		}
		s.collector.CacheMiss()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return storageErr("save", err)
		}
		defer tx.Rollback()

		var existing string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM clipboard_items WHERE content = ? LIMIT 1`,
			item.Content).Scan(&existing)
		switch {
		case err == nil:
			// Content already stored under another id.
			s.seen.Mark(key)
			s.logger.Debug("duplicate content skipped", "id", item.ID, "existing", existing)
			return tx.Commit()
		case err != sql.ErrNoRows:
			return storageErr("save", err)
		}

		tags, err := json.Marshal(item.Tags)
		if err != nil {
			return storageErr("save", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO clipboard_items
			(id, content, content_type, timestamp, source_app, favorite, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Content, string(item.ContentType),
			item.Timestamp.UTC().Format(timeLayout),
			item.SourceApp, item.Favorite, string(tags))
		if err != nil {
			return storageErr("save", err)
		}

		if err := tx.Commit(); err != nil {
			return storageErr("save", err)
		}
		s.seen.Mark(key)
		return nil
	})
}

// Get retrieves one item by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Item, error) {
	var item *Item
	err := s.observe("get", func() error {
		row := s.db.QueryRowContext(ctx, `
			SELECT id, content, content_type, timestamp, source_app, favorite, tags
			FROM clipboard_items WHERE id = ?`, id)
		var err error
		item, err = scanItem(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return storageErr("get", err)
		}
		return nil
	})
	return item, err
}

// List returns items newest first, at most limit of them.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var items []*Item
	err := s.observe("list", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, content, content_type, timestamp, source_app, favorite, tags
			FROM clipboard_items ORDER BY timestamp DESC LIMIT ?`, limit)
		if err != nil {
			return storageErr("list", err)
		}
		items, err = collectItems(rows)
		return storageErr("list", err)
	})
	return items, err
}

// Search matches query case-insensitively against content, source
// application and serialized tags, newest first, capped at 100 rows.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]*Item, error) {
	var items []*Item
	err := s.observe("search", func() error {
		pattern := "%" + query + "%"
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, content, content_type, timestamp, source_app, favorite, tags
			FROM clipboard_items
			WHERE content LIKE ? OR source_app LIKE ? OR tags LIKE ?
			ORDER BY timestamp DESC LIMIT ?`,
			pattern, pattern, pattern, defaultListLimit)
		if err != nil {
			return storageErr("search", err)
		}
		items, err = collectItems(rows)
		return storageErr("search", err)
	})
	return items, err
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *SQLiteStore) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var favorite bool
	err := s.observe("toggle_favorite", func() error {
		err := s.db.QueryRowContext(ctx, `
			UPDATE clipboard_items SET favorite = NOT favorite
			WHERE id = ? RETURNING favorite`, id).Scan(&favorite)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return storageErr("toggle_favorite", err)
	})
	return favorite, err
}

// Delete removes one item and invalidates its dedup cache entry so the
// same content can be saved again afterwards.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.observe("delete", func() error {
		var content string
		err := s.db.QueryRowContext(ctx,
			`SELECT content FROM clipboard_items WHERE id = ?`, id).Scan(&content)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return storageErr("delete", err)
		}

		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM clipboard_items WHERE id = ?`, id); err != nil {
			return storageErr("delete", err)
		}
		s.seen.Remove(dedupe.Key(content))
		return nil
	})
}

// Clear removes all items and returns the count removed.
func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	var removed int
	err := s.observe("clear", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM clipboard_items`)
		if err != nil {
			return storageErr("clear", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("clear", err)
		}
		removed = int(n)
		s.seen.Purge()
		s.logger.Info("history cleared", "removed", removed)
		return nil
	})
	return removed, err
}

// ListFavorites returns all favorited items newest first.
func (s *SQLiteStore) ListFavorites(ctx context.Context) ([]*Item, error) {
	var items []*Item
	err := s.observe("list_favorites", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, content, content_type, timestamp, source_app, favorite, tags
			FROM clipboard_items WHERE favorite = 1 ORDER BY timestamp DESC`)
		if err != nil {
			return storageErr("list_favorites", err)
		}
		items, err = collectItems(rows)
		return storageErr("list_favorites", err)
	})
	return items, err
}

// ListByContentType returns all items of one content type newest first.
func (s *SQLiteStore) ListByContentType(ctx context.Context, contentType ContentType) ([]*Item, error) {
	var items []*Item
	err := s.observe("list_by_type", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, content, content_type, timestamp, source_app, favorite, tags
			FROM clipboard_items WHERE content_type = ? ORDER BY timestamp DESC`,
			string(contentType))
		if err != nil {
			return storageErr("list_by_type", err)
		}
		items, err = collectItems(rows)
		return storageErr("list_by_type", err)
	})
	return items, err
}

// AddTag appends tag to the item's tag set. Adding a tag the item
// already carries is a no-op.
func (s *SQLiteStore) AddTag(ctx context.Context, id, tag string) error {
	return s.observe("add_tag", func() error {
		if err := ValidateTag(tag); err != nil {
			return err
		}
		return s.updateTags(ctx, id, func(tags []string) ([]string, error) {
			if slices.Contains(tags, tag) {
				return tags, nil
			}
			if len(tags) >= MaxTags {
				return nil, &ValidationError{Field: "tags", Reason: fmt.Sprintf("more than %d tags", MaxTags)}
			}
			return append(tags, tag), nil
		})
	})
}

// RemoveTag removes tag from the item's tag set. Removing an absent tag
// is a no-op.
func (s *SQLiteStore) RemoveTag(ctx context.Context, id, tag string) error {
	return s.observe("remove_tag", func() error {
		return s.updateTags(ctx, id, func(tags []string) ([]string, error) {
			return slices.DeleteFunc(tags, func(t string) bool { return t == tag }), nil
		})
	})
}

// updateTags runs a read-modify-write cycle on an item's tag set inside
// a transaction so concurrent tag updates cannot clobber each other.
func (s *SQLiteStore) updateTags(ctx context.Context, id string, mutate func([]string) ([]string, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update_tags", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT tags FROM clipboard_items WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("update_tags", err)
	}

	var tags []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return storageErr("update_tags", err)
		}
	}

	updated, err := mutate(tags)
	if err != nil {
		return err
	}
	if updated == nil {
		updated = []string{}
	}

	encoded, err := json.Marshal(updated)
	if err != nil {
		return storageErr("update_tags", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE clipboard_items SET tags = ? WHERE id = ?`, string(encoded), id); err != nil {
		return storageErr("update_tags", err)
	}
	return storageErr("update_tags", tx.Commit())
}

// CleanupOlderThan deletes items older than maxAge and returns the
// count removed. The dedup cache is purged so reappearing content is
// saved again.
func (s *SQLiteStore) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	var removed int
	err := s.observe("cleanup", func() error {
		cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM clipboard_items WHERE timestamp < ?`, cutoff)
		if err != nil {
			return storageErr("cleanup", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("cleanup", err)
		}
		removed = int(n)
		if removed > 0 {
			s.seen.Purge()
			s.logger.Info("cleanup removed old items", "removed", removed, "cutoff", cutoff)
		}
		return nil
	})
	return removed, err
}

// RowStats reports aggregate statistics over the stored rows.
func (s *SQLiteStore) RowStats(ctx context.Context) (*RowStats, error) {
	var stats *RowStats
	err := s.observe("row_stats", func() error {
		var (
			total, favorites, types int
			earliest, latest        sql.NullString
		)
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*),
			       COALESCE(SUM(favorite), 0),
			       COUNT(DISTINCT content_type),
			       MIN(timestamp), MAX(timestamp)
			FROM clipboard_items`).Scan(&total, &favorites, &types, &earliest, &latest)
		if err != nil {
			return storageErr("row_stats", err)
		}
		stats = &RowStats{
			TotalItems:           total,
			FavoriteCount:        favorites,
			DistinctContentTypes: types,
		}
		if earliest.Valid {
			if stats.EarliestItem, err = time.Parse(timeLayout, earliest.String); err != nil {
				return storageErr("row_stats", err)
			}
		}
		if latest.Valid {
			if stats.LatestItem, err = time.Parse(timeLayout, latest.String); err != nil {
				return storageErr("row_stats", err)
			}
		}
		return nil
	})
	return stats, err
}

// Optimize runs storage housekeeping: statistics refresh, WAL
// checkpoint and a VACUUM when at least a quarter of the pages are on
// the freelist.
func (s *SQLiteStore) Optimize(ctx context.Context) error {
	return s.observe("optimize", func() error {
		for _, stmt := range []string{"ANALYZE", "PRAGMA optimize", "PRAGMA wal_checkpoint(TRUNCATE)"} {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return storageErr("optimize", err)
			}
		}

		var freelist, pages int64
		if err := s.db.QueryRowContext(ctx, "PRAGMA freelist_count").Scan(&freelist); err != nil {
			return storageErr("optimize", err)
		}
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
			return storageErr("optimize", err)
		}
		if pages > 0 && freelist*4 >= pages {
			s.logger.Info("vacuuming database", "freelist_pages", freelist, "total_pages", pages)
			if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
				return storageErr("optimize", err)
			}
		}
		return nil
	})
}

// HealthCheck probes connectivity with a one-row round trip.
func (s *SQLiteStore) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	h := Health{
		Healthy:      err == nil,
		ResponseTime: time.Since(start),
		CheckedAt:    time.Now().UTC(),
	}
	if err != nil {
		h.Error = err.Error()
		s.logger.Warn("health check failed", "error", err)
	}
	return h
}

// scanner abstracts *sql.Row and *sql.Rows for scanItem.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var (
		item      Item
		ctype     string
		ts        string
		tags      string
		sourceApp sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Content, &ctype, &ts, &sourceApp, &item.Favorite, &tags); err != nil {
		return nil, err
	}
	item.ContentType = ParseContentType(ctype)
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	item.Timestamp = parsed
	item.SourceApp = sourceApp.String
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			return nil, fmt.Errorf("parsing tags: %w", err)
		}
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
