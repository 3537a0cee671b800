package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"attendsync/internal/domain/attendance"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   int
	got     []attendance.BulkRecord
	results []attendance.BulkResult
	err     error
	block   chan struct{}
}

func (s *fakeSender) BulkSync(ctx context.Context, records []attendance.BulkRecord) ([]attendance.BulkResult, error) {
	s.mu.Lock()
	s.calls++
	s.got = records
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *fakeSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFlush_AppliesPerRecordOutcomes(t *testing.T) {
	queue := testQueue(t)

	ok, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	conflicted, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	rejected, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-3", Status: "late", CapturedAt: "not-a-time"})
	require.NoError(t, err)

	sender := &fakeSender{results: []attendance.BulkResult{
		{LocalID: ok.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-1"},
		{LocalID: conflicted.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-2", Conflict: true},
		{LocalID: rejected.LocalID, Status: attendance.OutcomeFailed, Message: "invalid capturedAt timestamp"},
	}}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.NoError(t, err)
	assert.Equal(t, FlushResult{Total: 3, Succeeded: 2, Failed: 1, Conflicts: 1}, result)
	require.Len(t, sender.got, 3)

	counts, err := queue.CountByState("scit")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StateSynced])
	assert.Equal(t, 1, counts[StateFailed])

	settings, err := queue.Settings("scit")
	require.NoError(t, err)
	require.NotNil(t, settings.LastSyncAt)
	assert.Equal(t, 2, settings.LastSucceeded)
	assert.Equal(t, 1, settings.LastConflicts)
}

func TestFlush_TransportErrorMarksAllFailed(t *testing.T) {
	queue := testQueue(t)

	_, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	_, err = queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	sender := &fakeSender{err: errors.New("connection refused")}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.Error(t, err)
	assert.Equal(t, FlushResult{Total: 2, Failed: 2}, result)

	marks, err := queue.ListByTenant("scit")
	require.NoError(t, err)
	for _, mark := range marks {
		assert.Equal(t, StateFailed, mark.SyncState)
		assert.NotNil(t, mark.LastAttemptAt)
	}
}

func TestFlush_FailedMarksRideAlongNextFlush(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	require.NoError(t, queue.MarkOutcome(mark.LocalID, StateFailed, time.Now()))

	sender := &fakeSender{results: []attendance.BulkResult{
		{LocalID: mark.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-1"},
	}}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, sender.got, 1)
	assert.Equal(t, mark.LocalID, sender.got[0].LocalID)
}

func TestFlush_ResubmitsAcknowledgedMarks(t *testing.T) {
	queue := testQueue(t)

	acked, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	require.NoError(t, queue.MarkOutcome(acked.LocalID, StateSynced, time.Now()))
	pending, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:01:00Z"})
	require.NoError(t, err)

	sender := &fakeSender{results: []attendance.BulkResult{
		{LocalID: acked.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-1"},
		{LocalID: pending.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-2"},
	}}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.NoError(t, err)
	// the whole queue goes out, acknowledged marks included
	assert.Equal(t, 2, result.Total)
	require.Len(t, sender.got, 2)
	ids := []string{sender.got[0].LocalID, sender.got[1].LocalID}
	assert.Contains(t, ids, acked.LocalID)
	assert.Contains(t, ids, pending.LocalID)

	counts, err := queue.CountByState("scit")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StateSynced])
}

func TestFlush_MissingOutcomeMarksFailed(t *testing.T) {
	queue := testQueue(t)

	answered, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)
	orphaned, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-2", Status: "absent", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	sender := &fakeSender{results: []attendance.BulkResult{
		{LocalID: answered.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-1"},
	}}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.NoError(t, err)
	assert.Equal(t, FlushResult{Total: 2, Succeeded: 1, Failed: 1}, result)

	marks, err := queue.ListByTenant("scit")
	require.NoError(t, err)
	for _, mark := range marks {
		if mark.LocalID == orphaned.LocalID {
			assert.Equal(t, StateFailed, mark.SyncState)
		}
	}
}

func TestFlush_EmptyQueueSkipsServer(t *testing.T) {
	queue := testQueue(t)
	sender := &fakeSender{}
	flush := NewFlushService(queue, sender, slog.Default())

	result, err := flush.Flush(context.Background(), "scit")

	require.NoError(t, err)
	assert.Equal(t, FlushResult{}, result)
	assert.Equal(t, 0, sender.callCount())
}

func TestFlush_SingleFlightPerTenant(t *testing.T) {
	queue := testQueue(t)

	mark, err := queue.Enqueue(QueuedMark{TenantID: "scit", SessionID: "s-1", StudentID: "st-1", Status: "present", CapturedAt: "2026-03-10T10:00:00Z"})
	require.NoError(t, err)

	sender := &fakeSender{
		block: make(chan struct{}),
		results: []attendance.BulkResult{
			{LocalID: mark.LocalID, Status: attendance.OutcomeSynced, AttendanceID: "a-1"},
		},
	}
	flush := NewFlushService(queue, sender, slog.Default())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ferr := flush.Flush(context.Background(), "scit")
		assert.NoError(t, ferr)
	}()

	// wait until the first flush is inside the sender
	require.Eventually(t, func() bool { return sender.callCount() == 1 },
		time.Second, 10*time.Millisecond)

	_, err = flush.Flush(context.Background(), "scit")
	assert.ErrorIs(t, err, ErrFlushInFlight)

	close(sender.block)
	<-done

	// once released, a new flush may run again
	_, err = flush.Flush(context.Background(), "scit")
	assert.NoError(t, err)
}
