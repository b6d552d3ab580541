// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thuanpham582002/ClipBook/internal/metrics"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu    sync.RWMutex
	items map[string]*Item // keyed by item ID

	// SaveErr, when set, is returned by Save. Lets tests exercise
	// failure paths without a broken database.
	SaveErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		items: make(map[string]*Item),
	}
}

// Save stores an item, skipping content already present.
func (m *MockStore) Save(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	if err := item.Validate(); err != nil {
		return err
	}
	for _, existing := range m.items {
		if existing.Content == item.Content {
			return nil
		}
	}

	// Make a copy to avoid external modification
	i := *item
	i.Tags = slices.Clone(item.Tags)
	m.items[i.ID] = &i
	return nil
}

// Get retrieves an item by ID.
func (m *MockStore) Get(ctx context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *i
	result.Tags = slices.Clone(i.Tags)
	return &result, nil
}

// List returns items newest first up to limit.
func (m *MockStore) List(ctx context.Context, limit int) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = defaultListLimit
	}
	items := m.collect(func(*Item) bool { return true })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Search matches content, source app and tags case-insensitively.
func (m *MockStore) Search(ctx context.Context, query string) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	items := m.collect(func(i *Item) bool {
		if strings.Contains(strings.ToLower(i.Content), q) {
			return true
		}
		if strings.Contains(strings.ToLower(i.SourceApp), q) {
			return true
		}
		for _, tag := range i.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
	if len(items) > defaultListLimit {
		items = items[:defaultListLimit]
	}
	return items, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (m *MockStore) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.items[id]
	if !ok {
		return false, ErrNotFound
	}
	i.Favorite = !i.Favorite
	return i.Favorite, nil
}

// Delete removes an item by ID.
func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Clear removes all items.
func (m *MockStore) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.items)
	m.items = make(map[string]*Item)
	return n, nil
}

// ListFavorites returns favorited items newest first.
func (m *MockStore) ListFavorites(ctx context.Context) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(i *Item) bool { return i.Favorite }), nil
}

// ListByContentType returns items of one type newest first.
func (m *MockStore) ListByContentType(ctx context.Context, contentType ContentType) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(i *Item) bool { return i.ContentType == contentType }), nil
}

// AddTag appends a tag if not already present.
func (m *MockStore) AddTag(ctx context.Context, id, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateTag(tag); err != nil {
		return err
	}
	i, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if !slices.Contains(i.Tags, tag) {
		i.Tags = append(i.Tags, tag)
	}
	return nil
}

// RemoveTag removes a tag if present.
func (m *MockStore) RemoveTag(ctx context.Context, id, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	i.Tags = slices.DeleteFunc(i.Tags, func(t string) bool { return t == tag })
	return nil
}

// CleanupOlderThan removes items older than maxAge.
func (m *MockStore) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for id, i := range m.items {
		if i.Timestamp.Before(cutoff) {
			delete(m.items, id)
			removed++
		}
	}
	return removed, nil
}

// RowStats aggregates over the stored items.
func (m *MockStore) RowStats(ctx context.Context) (*RowStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &RowStats{TotalItems: len(m.items)}
	types := make(map[ContentType]struct{})
	for _, i := range m.items {
		if i.Favorite {
			stats.FavoriteCount++
		}
		types[i.ContentType] = struct{}{}
		if stats.EarliestItem.IsZero() || i.Timestamp.Before(stats.EarliestItem) {
			stats.EarliestItem = i.Timestamp
		}
		if i.Timestamp.After(stats.LatestItem) {
			stats.LatestItem = i.Timestamp
		}
	}
	stats.DistinctContentTypes = len(types)
	return stats, nil
}

// Metrics returns an empty snapshot; MockStore does not meter.
func (m *MockStore) Metrics() metrics.Snapshot {
	return metrics.Snapshot{Operations: map[string]metrics.OperationStats{}}
}

// Optimize is a no-op for MockStore.
func (m *MockStore) Optimize(ctx context.Context) error { return nil }

// HealthCheck always reports healthy.
func (m *MockStore) HealthCheck(ctx context.Context) Health {
	return Health{Healthy: true, CheckedAt: time.Now().UTC()}
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error { return nil }

// Len reports the stored item count, for test assertions.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// collect returns copies of items matching keep, newest first. Caller
// must hold at least a read lock.
func (m *MockStore) collect(keep func(*Item) bool) []*Item {
	var items []*Item
	for _, i := range m.items {
		if keep(i) {
			itemCopy := *i
			itemCopy.Tags = slices.Clone(i.Tags)
			items = append(items, &itemCopy)
		}
	}
	sort.Slice(items, func(a, b int) bool {
		return items[a].Timestamp.After(items[b].Timestamp)
	})
	return items
}

// Verify MockStore implements Store interface at compile time.
var _ Store = (*MockStore)(nil)
