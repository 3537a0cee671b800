package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"attendsync/internal/domain/attendance"
)

// ErrFlushInFlight is returned when a flush for the same tenant is already
// running. Callers treat it as "try again later", not as a failure.
var ErrFlushInFlight = errors.New("flush already in progress")

// The batch round trip is bounded on the client side regardless of server
// behavior.
const flushTimeout = 15 * time.Second

type batchSender interface {
	BulkSync(ctx context.Context, records []attendance.BulkRecord) ([]attendance.BulkResult, error)
}

// FlushService drains the durable queue into the server in single batches.
// At most one flush per tenant runs at a time.
type FlushService struct {
	queue  *Queue
	sender batchSender
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewFlushService(queue *Queue, sender batchSender, log *slog.Logger) *FlushService {
	return &FlushService{
		queue:    queue,
		sender:   sender,
		log:      log.With("component", "flush_service"),
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

func (f *FlushService) acquire(tenantID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight[tenantID] {
		return false
	}
	f.inFlight[tenantID] = true
	return true
}

func (f *FlushService) release(tenantID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, tenantID)
}

// Flush sends every mark for the tenant in one batch, regardless of sync
// state, and applies the per-record outcomes. A transport failure marks the
// whole batch failed; the marks stay queued for the next attempt.
func (f *FlushService) Flush(ctx context.Context, tenantID string) (FlushResult, error) {
	if !f.acquire(tenantID) {
		return FlushResult{}, ErrFlushInFlight
	}
	defer f.release(tenantID)

	marks, err := f.queue.ListForFlush(tenantID)
	if err != nil {
		return FlushResult{}, fmt.Errorf("list queued marks: %w", err)
	}
	if len(marks) == 0 {
		return FlushResult{}, nil
	}

	records := make([]attendance.BulkRecord, 0, len(marks))
	for _, mark := range marks {
		records = append(records, attendance.BulkRecord{
			LocalID:    mark.LocalID,
			SessionID:  mark.SessionID,
			StudentID:  mark.StudentID,
			CapturedAt: mark.CapturedAt,
			Status:     attendance.Status(mark.Status),
			Payload:    mark.Payload,
		})
	}

	// record the attempt up front so a crash mid-flight still leaves a trace
	started := f.now()
	for _, mark := range marks {
		if err := f.queue.TouchAttempt(mark.LocalID, started); err != nil {
			f.log.Warn("failed to record attempt", "local_id", mark.LocalID, "error", err)
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	results, err := f.sender.BulkSync(sendCtx, records)
	attemptAt := f.now()
	if err != nil {
		for _, mark := range marks {
			if qerr := f.queue.MarkOutcome(mark.LocalID, StateFailed, attemptAt); qerr != nil {
				f.log.Error("failed to mark batch failure", "local_id", mark.LocalID, "error", qerr)
			}
		}
		return FlushResult{Total: len(marks), Failed: len(marks)},
			fmt.Errorf("deliver batch: %w", err)
	}

	result := FlushResult{Total: len(marks)}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.LocalID] = true
		state := StateFailed
		switch r.Status {
		case attendance.OutcomeSynced:
			state = StateSynced
			result.Succeeded++
			if r.Conflict {
				result.Conflicts++
			}
		default:
			result.Failed++
		}
		if err := f.queue.MarkOutcome(r.LocalID, state, attemptAt); err != nil {
			f.log.Error("failed to record outcome", "local_id", r.LocalID, "error", err)
		}
	}

	// every submitted mark must get a verdict; one the server did not answer
	// for is treated as failed so it retries instead of hanging
	for _, mark := range marks {
		if seen[mark.LocalID] {
			continue
		}
		result.Failed++
		f.log.Warn("no outcome returned for mark", "local_id", mark.LocalID)
		if err := f.queue.MarkOutcome(mark.LocalID, StateFailed, attemptAt); err != nil {
			f.log.Error("failed to record outcome", "local_id", mark.LocalID, "error", err)
		}
	}

	if err := f.recordSync(tenantID, attemptAt, result); err != nil {
		f.log.Error("failed to update tenant settings", "tenant_id", tenantID, "error", err)
	}

	f.log.Info("flush finished",
		"tenant_id", tenantID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"conflicts", result.Conflicts,
	)
	return result, nil
}

func (f *FlushService) recordSync(tenantID string, at time.Time, result FlushResult) error {
	settings, err := f.queue.Settings(tenantID)
	if err != nil {
		return err
	}
	settings.LastSyncAt = &at
	settings.LastSucceeded = result.Succeeded
	settings.LastFailed = result.Failed
	settings.LastConflicts = result.Conflicts
	return f.queue.SaveSettings(settings)
}

// StartAutoFlush flushes on a fixed interval until the context is canceled.
func (f *FlushService) StartAutoFlush(ctx context.Context, tenantID string, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := f.Flush(ctx, tenantID); err != nil && !errors.Is(err, ErrFlushInFlight) {
					f.log.Warn("auto flush failed", "tenant_id", tenantID, "error", err)
				}
			}
		}
	}()
}
