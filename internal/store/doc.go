// Package store provides persistent clipboard history storage using SQLite.
//
// # Architecture
//
// The Store interface defines all history operations: saving captures,
// retrieval, search, favorites, tagging and retention cleanup.
// SQLiteStore is the production implementation; MockStore is an
// in-memory implementation for unit tests.
//
// # Data Model
//
//   - Item: one clipboard capture with content, type, timestamp,
//     optional source application, favorite flag and tag set
//   - RowStats: aggregate counts over the stored items
//   - Health: result of a connectivity probe
//
// Content is immutable once stored. Saving content byte-identical to an
// existing item is a successful no-op, enforced both by an in-memory
// hash cache and inside the save transaction.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as fixed-width UTC text so lexicographic order
// matches chronological order.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested item does not exist
//   - ValidationError: input rejected before reaching storage
//   - StorageError: wrapped driver or I/O failure
//
// All methods accept context.Context for cancellation support.
//
// # Migrations
//
// Schema migrations are embedded in the migrate package and run
// automatically on store initialization.
package store
