package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"attendsync/internal/domain/attendance"
	"attendsync/internal/domain/audit"
	"attendsync/internal/domain/risk"
)

// AttendanceRepository implements the reconciler's storage seam on Postgres.
// Batch transactionality maps directly onto pgx: one outer transaction per
// batch, one nested transaction (savepoint) per record.
type AttendanceRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewAttendanceRepository(pool *pgxpool.Pool, log *slog.Logger) *AttendanceRepository {
	return &AttendanceRepository{
		pool: pool,
		log:  log.With("component", "attendance_repository"),
	}
}

func (r *AttendanceRepository) InBatch(ctx context.Context, fn func(tx attendance.BatchTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	if err := fn(&batchTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) SessionInWindow(ctx context.Context, tenantID, facultyID string, now time.Time) (*attendance.Session, error) {
	const query = `
		SELECT s.id, s.tenant_id, s.subject_id, sub.name, s.batch_id, b.name,
		       s.faculty_id, f.name, s.starts_at, s.ends_at
		FROM schedule_sessions s
		JOIN subjects sub ON sub.id = s.subject_id
		JOIN batches b ON b.id = s.batch_id
		JOIN faculties f ON f.id = s.faculty_id
		WHERE s.tenant_id = $1 AND s.faculty_id = $2
		  AND s.starts_at >= $3 AND s.starts_at <= $4
		  AND s.ends_at >= $5
		ORDER BY s.starts_at ASC
		LIMIT 1`

	row := r.pool.QueryRow(ctx, query, tenantID, facultyID,
		now.Add(-attendance.SessionWindowBefore), now.Add(attendance.SessionWindowAfter), now)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("session in window: %w", err)
	}
	return session, nil
}

func (r *AttendanceRepository) ActiveEnrollments(ctx context.Context, tenantID, subjectID, batchID string) ([]attendance.Enrollment, error) {
	const query = `
		SELECT e.id, e.tenant_id, e.student_id, e.subject_id, e.batch_id, e.status,
		       st.id, st.name, COALESCE(st.roll_number, ''),
		       COALESCE(st.parent_name, ''), COALESCE(st.parent_phone, '')
		FROM enrollments e
		JOIN students st ON st.id = e.student_id
		WHERE e.tenant_id = $1 AND e.subject_id = $2 AND e.batch_id = $3
		  AND e.status = 'active'`

	rows, err := r.pool.Query(ctx, query, tenantID, subjectID, batchID)
	if err != nil {
		return nil, fmt.Errorf("active enrollments: %w", err)
	}
	defer rows.Close()

	var out []attendance.Enrollment
	for rows.Next() {
		var e attendance.Enrollment
		if err := rows.Scan(&e.ID, &e.TenantID, &e.StudentID, &e.SubjectID, &e.BatchID, &e.Status,
			&e.Student.ID, &e.Student.Name, &e.Student.RollNumber,
			&e.Student.ParentName, &e.Student.ParentPhone); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *AttendanceRepository) SubjectHistory(ctx context.Context, tenantID, subjectID string, studentIDs []string, since time.Time) (map[string][]risk.Observation, error) {
	if len(studentIDs) == 0 {
		return map[string][]risk.Observation{}, nil
	}

	const query = `
		SELECT a.student_id, a.status, a.captured_at
		FROM attendance_records a
		JOIN schedule_sessions s ON s.id = a.session_id
		WHERE a.tenant_id = $1 AND s.subject_id = $2
		  AND a.student_id = ANY($3) AND a.captured_at >= $4
		ORDER BY a.captured_at DESC`

	rows, err := r.pool.Query(ctx, query, tenantID, subjectID, studentIDs, since)
	if err != nil {
		return nil, fmt.Errorf("subject history: %w", err)
	}
	defer rows.Close()

	history := map[string][]risk.Observation{}
	for rows.Next() {
		var studentID string
		var obs risk.Observation
		if err := rows.Scan(&studentID, &obs.Status, &obs.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history[studentID] = append(history[studentID], obs)
	}
	return history, rows.Err()
}

// batchTx wraps one pgx transaction level. Savepoint spawns a nested
// transaction so a record failure rolls back only its own writes.
type batchTx struct {
	tx pgx.Tx
}

func (t *batchTx) Savepoint(ctx context.Context, fn func(sp attendance.BatchTx) error) error {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("open savepoint: %w", err)
	}
	if err := fn(&batchTx{tx: nested}); err != nil {
		_ = nested.Rollback(ctx)
		return err
	}
	if err := nested.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (t *batchTx) GetSession(ctx context.Context, tenantID, sessionID string) (*attendance.Session, error) {
	const query = `
		SELECT s.id, s.tenant_id, s.subject_id, sub.name, s.batch_id, b.name,
		       s.faculty_id, f.name, s.starts_at, s.ends_at
		FROM schedule_sessions s
		JOIN subjects sub ON sub.id = s.subject_id
		JOIN batches b ON b.id = s.batch_id
		JOIN faculties f ON f.id = s.faculty_id
		WHERE s.id = $1 AND s.tenant_id = $2`

	session, err := scanSession(t.tx.QueryRow(ctx, query, sessionID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (t *batchTx) GetEnrollment(ctx context.Context, tenantID, studentID, subjectID, batchID string) (*attendance.Enrollment, error) {
	const query = `
		SELECT id, tenant_id, student_id, subject_id, batch_id, status
		FROM enrollments
		WHERE tenant_id = $1 AND student_id = $2 AND subject_id = $3 AND batch_id = $4`

	var e attendance.Enrollment
	err := t.tx.QueryRow(ctx, query, tenantID, studentID, subjectID, batchID).
		Scan(&e.ID, &e.TenantID, &e.StudentID, &e.SubjectID, &e.BatchID, &e.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &e, nil
}

func (t *batchTx) GetBySessionStudent(ctx context.Context, sessionID, studentID string) (*attendance.Record, error) {
	const query = `
		SELECT id, tenant_id, session_id, student_id, faculty_id, status,
		       captured_at, recorded_at, updated_at, local_id, metadata
		FROM attendance_records
		WHERE session_id = $1 AND student_id = $2`

	var rec attendance.Record
	var metadata []byte
	err := t.tx.QueryRow(ctx, query, sessionID, studentID).Scan(
		&rec.ID, &rec.TenantID, &rec.SessionID, &rec.StudentID, &rec.FacultyID,
		&rec.Status, &rec.CapturedAt, &rec.RecordedAt, &rec.UpdatedAt,
		&rec.LocalID, &metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &rec, nil
}

func (t *batchTx) Insert(ctx context.Context, rec *attendance.Record) error {
	const query = `
		INSERT INTO attendance_records
			(id, tenant_id, session_id, student_id, faculty_id, status,
			 captured_at, recorded_at, updated_at, local_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	metadata, err := metadataJSON(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, query, rec.ID, rec.TenantID, rec.SessionID, rec.StudentID,
		rec.FacultyID, rec.Status, rec.CapturedAt, rec.RecordedAt, rec.UpdatedAt,
		rec.LocalID, metadata)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (t *batchTx) Update(ctx context.Context, rec *attendance.Record) error {
	const query = `
		UPDATE attendance_records
		SET status = $1, captured_at = $2, updated_at = $3, local_id = $4, metadata = $5
		WHERE id = $6`

	metadata, err := metadataJSON(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, query, rec.Status, rec.CapturedAt, rec.UpdatedAt,
		rec.LocalID, metadata, rec.ID)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

func (t *batchTx) AppendAudit(ctx context.Context, entry *audit.Entry) error {
	const query = `
		INSERT INTO attendance_audit (id, tenant_id, attendance_id, actor_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	_, err = t.tx.Exec(ctx, query, entry.ID, entry.TenantID, entry.AttendanceID,
		entry.ActorID, entry.Action, payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*attendance.Session, error) {
	var s attendance.Session
	err := row.Scan(&s.ID, &s.TenantID, &s.SubjectID, &s.SubjectName,
		&s.BatchID, &s.BatchName, &s.FacultyID, &s.FacultyName,
		&s.StartsAt, &s.EndsAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func metadataJSON(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}
