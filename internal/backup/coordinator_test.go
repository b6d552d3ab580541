// ABOUTME: Tests for the backup coordinator and scheduler.
// ABOUTME: Covers round-trip snapshot/restore, the job ledger, pruning and retention.

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thuanpham582002/ClipBook/internal/store"
)

func newTestStore(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "live.db")
	s, err := store.NewSQLiteStore(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func saveItems(t *testing.T, s *store.SQLiteStore, contents ...string) []*store.Item {
	t.Helper()
	ctx := context.Background()
	items := make([]*store.Item, len(contents))
	for i, c := range contents {
		items[i] = store.NewItem(c, store.TypeText, "")
		require.NoError(t, s.Save(ctx, items[i]))
	}
	return items
}

func TestBackup_WritesSnapshotAndLedger(t *testing.T) {
	s, dbPath := newTestStore(t)
	saveItems(t, s, "alpha", "beta", "gamma")

	coord := NewCoordinator(s.DB(), dbPath)
	target := filepath.Join(t.TempDir(), "nested", "snapshot.db")

	job, err := coord.Backup(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, OpBackup, job.Operation)
	assert.Equal(t, 3, job.ItemsCount)
	assert.Greater(t, job.FileSizeBytes, int64(0))
	assert.Equal(t, metadataVersion, job.Metadata.Version)
	assert.False(t, job.EndTime.Before(job.StartTime))

	// The snapshot is a standalone store at the current schema version.
	snap, err := store.NewSQLiteStore(target, nil)
	require.NoError(t, err)
	defer snap.Close()
	items, err := snap.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	jobs, err := coord.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.Equal(t, StatusCompleted, jobs[0].Status)
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	s, dbPath := newTestStore(t)
	ctx := context.Background()
	originals := saveItems(t, s, "one", "two")

	coord := NewCoordinator(s.DB(), dbPath)
	target := filepath.Join(t.TempDir(), "roundtrip.db")

	job, err := coord.Backup(ctx, target)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, job.Status)

	// Mutate the live store after the snapshot.
	_, err = s.Clear(ctx)
	require.NoError(t, err)
	saveItems(t, s, "post-snapshot noise")

	job, err = coord.Restore(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, OpRestore, job.Operation)
	assert.Equal(t, 2, job.ItemsCount)

	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	got := map[string]bool{}
	for _, i := range items {
		got[i.Content] = true
	}
	for _, o := range originals {
		assert.True(t, got[o.Content], "restored set should contain %q", o.Content)
	}

	// Safety sidecar landed next to the live database.
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(dbPath), "pre_restore_*.db"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "restore should write a safety sidecar")
}

func TestRestore_MissingFile(t *testing.T) {
	s, dbPath := newTestStore(t)
	coord := NewCoordinator(s.DB(), dbPath)

	_, err := coord.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorIs(t, err, ErrBackupNotFound)

	// Nothing reached the ledger.
	jobs, err := coord.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRestore_PreservesJobLedger(t *testing.T) {
	s, dbPath := newTestStore(t)
	ctx := context.Background()
	saveItems(t, s, "payload")

	coord := NewCoordinator(s.DB(), dbPath)
	target := filepath.Join(t.TempDir(), "snap.db")
	_, err := coord.Backup(ctx, target)
	require.NoError(t, err)
	_, err = coord.Restore(ctx, target)
	require.NoError(t, err)

	jobs, err := coord.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "both the backup and the restore should be recorded")
	assert.Equal(t, OpRestore, jobs[0].Operation, "newest first")
	assert.Equal(t, OpBackup, jobs[1].Operation)
}

func TestScheduleAutomatic(t *testing.T) {
	s, dbPath := newTestStore(t)
	saveItems(t, s, "auto")

	coord := NewCoordinator(s.DB(), dbPath)
	dir := t.TempDir()

	job, err := coord.ScheduleAutomatic(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, dir, filepath.Dir(job.FilePath))
	assert.Contains(t, filepath.Base(job.FilePath), autoBackupPrefix)
}

func TestPrune(t *testing.T) {
	s, dbPath := newTestStore(t)
	coord := NewCoordinator(s.DB(), dbPath)
	dir := t.TempDir()

	// Five files with staggered mtimes, oldest first.
	base := time.Now().Add(-time.Hour)
	var names []string
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, autoBackupPrefix+string(rune('a'+i))+".db")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(name, mtime, mtime))
		names = append(names, name)
	}

	removed, err := coord.Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	// Exactly the two newest survive.
	for _, name := range names[:3] {
		_, err := os.Stat(name)
		assert.True(t, os.IsNotExist(err), "%s should be pruned", name)
	}
	for _, name := range names[3:] {
		_, err := os.Stat(name)
		assert.NoError(t, err, "%s should be kept", name)
	}
}

func TestPrune_MissingDirIsNoop(t *testing.T) {
	s, dbPath := newTestStore(t)
	coord := NewCoordinator(s.DB(), dbPath)

	removed, err := coord.Prune(filepath.Join(t.TempDir(), "absent"), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestScheduler_StartStop(t *testing.T) {
	s, dbPath := newTestStore(t)
	saveItems(t, s, "scheduled")
	coord := NewCoordinator(s.DB(), dbPath)
	dir := t.TempDir()

	sched := NewScheduler(coord, dir, 25*time.Millisecond, 2)
	sched.Start()
	sched.Start() // no-op on a running scheduler

	// Wait for at least one tick to produce a snapshot.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		matches, _ := filepath.Glob(filepath.Join(dir, autoBackupPrefix+"*.db"))
		if len(matches) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	matches, err := filepath.Glob(filepath.Join(dir, autoBackupPrefix+"*.db"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "scheduler should have produced a snapshot")

	sched.Stop()
	sched.Stop() // no-op on a stopped scheduler
}
