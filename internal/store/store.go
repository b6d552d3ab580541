// ABOUTME: Store interface and data types for clipboard history persistence
// ABOUTME: Defines Item, ContentType and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thuanpham582002/ClipBook/internal/metrics"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// ContentType classifies a clipboard capture.
type ContentType string

const (
	TypeText    ContentType = "text"
	TypeImage   ContentType = "image"
	TypeFile    ContentType = "file"
	TypeHTML    ContentType = "html"
	TypeUnknown ContentType = "unknown"
)

// ParseContentType maps a stored string to a ContentType, falling back to
// TypeUnknown for anything unrecognized.
func ParseContentType(s string) ContentType {
	switch ContentType(s) {
	case TypeText, TypeImage, TypeFile, TypeHTML, TypeUnknown:
		return ContentType(s)
	default:
		return TypeUnknown
	}
}

// Item is one persisted clipboard capture. Content is immutable once
// stored; only Favorite and Tags may change afterwards.
type Item struct {
	ID          string
	Content     string
	ContentType ContentType
	Timestamp   time.Time
	SourceApp   string // optional, empty when the platform has no signal
	Favorite    bool
	Tags        []string
}

// NewItem builds an Item with a fresh id and the current time.
func NewItem(content string, contentType ContentType, sourceApp string) *Item {
	return &Item{
		ID:          uuid.New().String(),
		Content:     content,
		ContentType: contentType,
		Timestamp:   time.Now().UTC(),
		SourceApp:   sourceApp,
	}
}

// RowStats summarizes the stored item set.
type RowStats struct {
	TotalItems           int
	FavoriteCount        int
	DistinctContentTypes int
	EarliestItem         time.Time
	LatestItem           time.Time
}

// Health is the result of a connectivity probe.
type Health struct {
	Healthy      bool
	ResponseTime time.Duration
	CheckedAt    time.Time
	Error        string
}

// Store defines the clipboard history persistence contract. All methods
// are safe for concurrent use.
type Store interface {
	// Save validates and persists an item, upserting by id. Saving
	// content identical to an already stored item is a successful no-op.
	Save(ctx context.Context, item *Item) error

	// Get retrieves one item by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Item, error)

	// List returns items ordered newest first, at most limit of them.
	// A non-positive limit selects the default of 100.
	List(ctx context.Context, limit int) ([]*Item, error)

	// Search performs a case-insensitive substring match against content,
	// source application and serialized tags, newest first, capped at 100.
	Search(ctx context.Context, query string) ([]*Item, error)

	// ToggleFavorite flips the favorite flag and returns the new value.
	ToggleFavorite(ctx context.Context, id string) (bool, error)

	Delete(ctx context.Context, id string) error

	// Clear removes all items and returns the count removed.
	Clear(ctx context.Context) (int, error)

	ListFavorites(ctx context.Context) ([]*Item, error)
	ListByContentType(ctx context.Context, contentType ContentType) ([]*Item, error)

	// AddTag and RemoveTag are idempotent read-modify-write operations on
	// the item's tag set.
	AddTag(ctx context.Context, id, tag string) error
	RemoveTag(ctx context.Context, id, tag string) error

	// CleanupOlderThan deletes items older than maxAge and returns the
	// count removed.
	CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error)

	// RowStats reports aggregate statistics over the stored rows.
	RowStats(ctx context.Context) (*RowStats, error)

	// Metrics returns the operation counters accumulated since start.
	Metrics() metrics.Snapshot

	// Optimize runs storage housekeeping. Safe to invoke concurrently
	// with reads.
	Optimize(ctx context.Context) error

	// HealthCheck probes connectivity with a one-row round trip.
	HealthCheck(ctx context.Context) Health

	// Close releases all resources. Operations after Close fail cleanly.
	Close() error
}
