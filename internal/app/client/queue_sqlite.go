package client

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Queue is the durable local mark store. Every capture lands here first;
// flushing to the server never removes rows, it only flips sync_state.
type Queue struct {
	db *sql.DB
}

func NewQueue(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	queue := &Queue{db: db}
	if err := queue.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init queue tables: %w", err)
	}

	return queue, nil
}

func (q *Queue) initTables() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS queued_marks (
			local_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			student_id TEXT NOT NULL,
			status TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			sync_state TEXT NOT NULL DEFAULT 'pending',
			queued_at TEXT NOT NULL,
			last_attempt_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_marks_tenant_state ON queued_marks(tenant_id, sync_state);
		CREATE INDEX IF NOT EXISTS idx_marks_queued ON queued_marks(queued_at);

		CREATE TABLE IF NOT EXISTS tenant_settings (
			tenant_id TEXT PRIMARY KEY,
			last_sync_at TEXT,
			last_succeeded INTEGER NOT NULL DEFAULT 0,
			last_failed INTEGER NOT NULL DEFAULT 0,
			last_conflicts INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS roster_cache (
			tenant_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			cached_at TEXT NOT NULL
		);
	`)
	return err
}

// Enqueue stores a captured mark locally. Missing local ids are generated
// here so the capture path never blocks on anything remote.
func (q *Queue) Enqueue(mark QueuedMark) (QueuedMark, error) {
	if mark.LocalID == "" {
		mark.LocalID = uuid.NewString()
	}
	mark.SyncState = StatePending
	mark.QueuedAt = time.Now().UTC()

	payloadJSON, err := json.Marshal(mark.Payload)
	if err != nil {
		return QueuedMark{}, fmt.Errorf("encode payload: %w", err)
	}
	if mark.Payload == nil {
		payloadJSON = []byte("{}")
	}

	_, err = q.db.Exec(`
		INSERT INTO queued_marks (local_id, tenant_id, session_id, student_id,
		                          status, captured_at, payload, sync_state, queued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, mark.LocalID, mark.TenantID, mark.SessionID, mark.StudentID,
		mark.Status, mark.CapturedAt, string(payloadJSON), mark.SyncState,
		mark.QueuedAt.Format(time.RFC3339))
	if err != nil {
		return QueuedMark{}, fmt.Errorf("enqueue mark: %w", err)
	}

	return mark, nil
}

// ListByTenant returns every queued mark for the tenant, newest first.
func (q *Queue) ListByTenant(tenantID string) ([]QueuedMark, error) {
	return q.list(`
		SELECT local_id, tenant_id, session_id, student_id, status, captured_at,
		       payload, sync_state, queued_at, last_attempt_at
		FROM queued_marks
		WHERE tenant_id = ?
		ORDER BY queued_at DESC
	`, tenantID)
}

// ListForFlush returns every queued mark for the tenant regardless of sync
// state, oldest first so capture order survives into the batch. Acknowledged
// marks ride along too; the server's composite key degrades their replay into
// a plain update.
func (q *Queue) ListForFlush(tenantID string) ([]QueuedMark, error) {
	return q.list(`
		SELECT local_id, tenant_id, session_id, student_id, status, captured_at,
		       payload, sync_state, queued_at, last_attempt_at
		FROM queued_marks
		WHERE tenant_id = ?
		ORDER BY queued_at ASC
	`, tenantID)
}

func (q *Queue) list(query string, args ...any) ([]QueuedMark, error) {
	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query marks: %w", err)
	}
	defer rows.Close()

	var marks []QueuedMark
	for rows.Next() {
		var mark QueuedMark
		var payloadJSON, queuedAt string
		var lastAttempt sql.NullString

		if err := rows.Scan(&mark.LocalID, &mark.TenantID, &mark.SessionID,
			&mark.StudentID, &mark.Status, &mark.CapturedAt, &payloadJSON,
			&mark.SyncState, &queuedAt, &lastAttempt); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}

		if err := json.Unmarshal([]byte(payloadJSON), &mark.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		mark.QueuedAt, _ = time.Parse(time.RFC3339, queuedAt)
		if lastAttempt.Valid {
			t, _ := time.Parse(time.RFC3339, lastAttempt.String)
			mark.LastAttemptAt = &t
		}

		marks = append(marks, mark)
	}

	return marks, rows.Err()
}

// MarkOutcome records the server's verdict for one mark.
func (q *Queue) MarkOutcome(localID, state string, attemptAt time.Time) error {
	_, err := q.db.Exec(`
		UPDATE queued_marks SET sync_state = ?, last_attempt_at = ? WHERE local_id = ?
	`, state, attemptAt.UTC().Format(time.RFC3339), localID)
	if err != nil {
		return fmt.Errorf("mark outcome: %w", err)
	}
	return nil
}

// TouchAttempt records a delivery attempt that produced no verdict.
func (q *Queue) TouchAttempt(localID string, attemptAt time.Time) error {
	_, err := q.db.Exec(`
		UPDATE queued_marks SET last_attempt_at = ? WHERE local_id = ?
	`, attemptAt.UTC().Format(time.RFC3339), localID)
	if err != nil {
		return fmt.Errorf("touch attempt: %w", err)
	}
	return nil
}

// PruneSynced deletes acknowledged marks only. Pending and failed rows are
// never pruned.
func (q *Queue) PruneSynced(tenantID string) (int, error) {
	res, err := q.db.Exec(`
		DELETE FROM queued_marks WHERE tenant_id = ? AND sync_state = 'synced'
	`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("prune synced: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune synced: %w", err)
	}
	return int(affected), nil
}

// CountByState returns queue depth per sync state.
func (q *Queue) CountByState(tenantID string) (map[string]int, error) {
	rows, err := q.db.Query(`
		SELECT sync_state, COUNT(*) FROM queued_marks WHERE tenant_id = ? GROUP BY sync_state
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count marks: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[state] = count
	}

	return counts, rows.Err()
}

// Settings returns the tenant bookkeeping row, zero-valued when absent.
func (q *Queue) Settings(tenantID string) (*TenantSettings, error) {
	var settings TenantSettings
	var lastSync sql.NullString

	err := q.db.QueryRow(`
		SELECT tenant_id, last_sync_at, last_succeeded, last_failed, last_conflicts
		FROM tenant_settings WHERE tenant_id = ?
	`, tenantID).Scan(&settings.TenantID, &lastSync,
		&settings.LastSucceeded, &settings.LastFailed, &settings.LastConflicts)
	if err == sql.ErrNoRows {
		return &TenantSettings{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if lastSync.Valid {
		t, _ := time.Parse(time.RFC3339, lastSync.String)
		settings.LastSyncAt = &t
	}
	return &settings, nil
}

func (q *Queue) SaveSettings(settings *TenantSettings) error {
	var lastSync any
	if settings.LastSyncAt != nil {
		lastSync = settings.LastSyncAt.UTC().Format(time.RFC3339)
	}

	_, err := q.db.Exec(`
		INSERT INTO tenant_settings (tenant_id, last_sync_at, last_succeeded, last_failed, last_conflicts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			last_succeeded = excluded.last_succeeded,
			last_failed = excluded.last_failed,
			last_conflicts = excluded.last_conflicts
	`, settings.TenantID, lastSync, settings.LastSucceeded,
		settings.LastFailed, settings.LastConflicts)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// CacheRoster stores the latest roster snapshot so capture works offline.
func (q *Queue) CacheRoster(tenantID string, data []byte) error {
	_, err := q.db.Exec(`
		INSERT INTO roster_cache (tenant_id, data, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at
	`, tenantID, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache roster: %w", err)
	}
	return nil
}

// CachedRoster returns the stored roster snapshot and when it was cached.
func (q *Queue) CachedRoster(tenantID string) ([]byte, time.Time, error) {
	var data, cachedAt string
	err := q.db.QueryRow(`
		SELECT data, cached_at FROM roster_cache WHERE tenant_id = ?
	`, tenantID).Scan(&data, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load cached roster: %w", err)
	}

	t, _ := time.Parse(time.RFC3339, cachedAt)
	return []byte(data), t, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}
