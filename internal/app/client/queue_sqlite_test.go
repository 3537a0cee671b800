package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueue(t *testing.T) *Queue {
	t.Helper()
	queue, err := NewQueue(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })
	return queue
}

func TestQueue_EnqueueGeneratesLocalID(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{
		TenantID:   "scit",
		SessionID:  "s-1",
		StudentID:  "st-1",
		Status:     "present",
		CapturedAt: "2026-03-10T10:00:00Z",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, mark.LocalID)
	assert.Equal(t, StatePending, mark.SyncState)
	assert.False(t, mark.QueuedAt.IsZero())
}

func TestQueue_EnqueueKeepsProvidedLocalID(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{
		LocalID:    "device-7",
		TenantID:   "scit",
		SessionID:  "s-1",
		StudentID:  "st-1",
		Status:     "late",
		CapturedAt: "2026-03-10T10:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, "device-7", mark.LocalID)
}

func TestQueue_ListByTenantNewestFirst(t *testing.T) {
	queue := testQueue(t)

	first, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	// queued_at has second precision in the store
	time.Sleep(1100 * time.Millisecond)
	second, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:01:00Z"})
	require.NoError(t, err)

	_, err = queue.Enqueue(QueuedMark{TenantID: "other", SessionID: "s-9", StudentID: "st-9", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	marks, err := queue.ListByTenant("scit")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, second.LocalID, marks[0].LocalID)
	assert.Equal(t, first.LocalID, marks[1].LocalID)
}

func TestQueue_ListForFlushIncludesEveryState(t *testing.T) {
	queue := testQueue(t)

	oldest, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	// queued_at has second precision in the store
	time.Sleep(1100 * time.Millisecond)
	failed, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	pending, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-3", Status: "late", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, queue.MarkOutcome(oldest.LocalID, StateSynced, now))
	require.NoError(t, queue.MarkOutcome(failed.LocalID, StateFailed, now))

	marks, err := queue.ListForFlush("scit")
	require.NoError(t, err)
	require.Len(t, marks, 3)

	// capture order, acknowledged marks included
	assert.Equal(t, oldest.LocalID, marks[0].LocalID)
	ids := []string{marks[0].LocalID, marks[1].LocalID, marks[2].LocalID}
	assert.Contains(t, ids, failed.LocalID)
	assert.Contains(t, ids, pending.LocalID)
}

func TestQueue_MarkOutcomeSetsAttempt(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	attempt := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	require.NoError(t, queue.MarkOutcome(mark.LocalID, StateFailed, attempt))

	marks, err := queue.ListByTenant("scit")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, StateFailed, marks[0].SyncState)
	require.NotNil(t, marks[0].LastAttemptAt)
	assert.True(t, marks[0].LastAttemptAt.Equal(attempt))
}

func TestQueue_PruneSyncedOnly(t *testing.T) {
	queue := testQueue(t)

	synced, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	pending, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	require.NoError(t, queue.MarkOutcome(synced.LocalID, StateSynced, time.Now()))

	pruned, err := queue.PruneSynced("scit")
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	marks, err := queue.ListByTenant("scit")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, pending.LocalID, marks[0].LocalID)
}

func TestQueue_CountByState(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	_, err = queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	require.NoError(t, queue.MarkOutcome(mark.LocalID, StateSynced, time.Now()))

	counts, err := queue.CountByState("scit")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StateSynced])
	assert.Equal(t, 1, counts[StatePending])
}

func TestQueue_SettingsRoundTrip(t *testing.T) {
	queue := testQueue(t)

	settings, err := queue.Settings("scit")
	require.NoError(t, err)
	assert.Nil(t, settings.LastSyncAt)

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	settings.LastSyncAt = &at
	settings.LastSucceeded = 5
	settings.LastConflicts = 1
	require.NoError(t, queue.SaveSettings(settings))

	loaded, err := queue.Settings("scit")
	require.NoError(t, err)
	require.NotNil(t, loaded.LastSyncAt)
	assert.True(t, loaded.LastSyncAt.Equal(at))
	assert.Equal(t, 5, loaded.LastSucceeded)
	assert.Equal(t, 1, loaded.LastConflicts)
}

func TestQueue_RosterCacheRoundTrip(t *testing.T) {
	queue := testQueue(t)

	data, cachedAt, err := queue.CachedRoster("scit")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.True(t, cachedAt.IsZero())

	require.NoError(t, queue.CacheRoster("scit", []byte(`{"sessionId":"s-1"}`)))

	data, cachedAt, err = queue.CachedRoster("scit")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessionId":"s-1"}`, string(data))
	assert.False(t, cachedAt.IsZero())
}
