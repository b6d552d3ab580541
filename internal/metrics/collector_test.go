// ABOUTME: Tests for the metrics collector.
// ABOUTME: Covers timing accumulation, error counting, threshold alerts and clearing.

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Measure(t *testing.T) {
	c := NewCollector(nil)

	err := c.Measure("save", func() error { return nil })
	require.NoError(t, err)

	snap := c.Snapshot()
	st, ok := snap.Operations["save"]
	require.True(t, ok, "operation should be recorded")
	assert.Equal(t, uint64(1), st.Count)
	assert.Equal(t, uint64(0), st.Errors)
	assert.False(t, snap.LastUpdated.IsZero())
}

func TestCollector_MeasureReturnsError(t *testing.T) {
	c := NewCollector(nil)
	want := errors.New("boom")

	err := c.Measure("save", func() error { return want })
	assert.Equal(t, want, err)

	snap := c.Snapshot()
	assert.Equal(t, uint64(1), snap.Operations["save"].Errors)
	assert.Equal(t, uint64(1), snap.ErrorCount)
}

func TestCollector_ObserveAccumulates(t *testing.T) {
	c := NewCollector(nil)

	c.Observe("list", 10*time.Millisecond, nil)
	c.Observe("list", 30*time.Millisecond, nil)

	st := c.Snapshot().Operations["list"]
	assert.Equal(t, uint64(2), st.Count)
	assert.Equal(t, 40*time.Millisecond, st.TotalDuration)
	assert.Equal(t, 20*time.Millisecond, st.AverageDuration)
	assert.Equal(t, 30*time.Millisecond, st.MaxDuration)
}

func TestCollector_DurationAlert(t *testing.T) {
	c := NewCollector(nil)

	c.Observe("slow", 250*time.Millisecond, nil)

	alerts := c.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "slow", alerts[0].Operation)
	assert.Contains(t, alerts[0].Message, "duration threshold")
}

func TestCollector_NoAlertUnderThreshold(t *testing.T) {
	c := NewCollector(nil)

	c.Observe("fast", time.Millisecond, nil)
	assert.Empty(t, c.Alerts())
}

func TestCollector_AlertsAccumulateUntilCleared(t *testing.T) {
	c := NewCollector(nil)

	c.Observe("slow", 200*time.Millisecond, nil)
	c.Observe("slow", 300*time.Millisecond, nil)
	assert.Len(t, c.Alerts(), 2)

	c.ClearAlerts()
	assert.Empty(t, c.Alerts())
}

func TestCollector_CacheCounters(t *testing.T) {
	c := NewCollector(nil)

	c.CacheHit()
	c.CacheHit()
	c.CacheMiss()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCollector_CheckMemory(t *testing.T) {
	c := NewCollector(nil)

	// Heap size is always positive; the call must not panic and must
	// return the sampled value.
	assert.Greater(t, c.CheckMemory("test"), uint64(0))
}

func TestCollector_SnapshotIsCopy(t *testing.T) {
	c := NewCollector(nil)
	c.Observe("save", time.Millisecond, nil)

	snap := c.Snapshot()
	snap.Operations["save"] = OperationStats{Count: 99}

	assert.Equal(t, uint64(1), c.Snapshot().Operations["save"].Count)
}
