package attendance

import (
	"context"
	"time"

	"attendsync/internal/domain/audit"
	"attendsync/internal/domain/risk"
)

// Repository is the storage seam for the reconciler and the roster read path.
type Repository interface {
	// InBatch opens one transaction for a whole sync batch and runs fn inside
	// it. The transaction commits only if fn returns nil.
	InBatch(ctx context.Context, fn func(tx BatchTx) error) error

	// SessionInWindow returns the faculty's next session whose start lies in
	// the active capture window around now and that has not yet ended, or nil.
	SessionInWindow(ctx context.Context, tenantID, facultyID string, now time.Time) (*Session, error)

	// ActiveEnrollments lists active enrollments with student identity for a
	// subject/batch pair.
	ActiveEnrollments(ctx context.Context, tenantID, subjectID, batchID string) ([]Enrollment, error)

	// SubjectHistory returns per-student attendance observations for one
	// subject since the given time, ordered most-recent-first.
	SubjectHistory(ctx context.Context, tenantID, subjectID string, studentIDs []string, since time.Time) (map[string][]risk.Observation, error)
}

// BatchTx is the per-batch transaction handle. Savepoint scopes one record's
// writes: if fn fails only that record's effects roll back while the outer
// batch transaction stays open for the remaining records.
type BatchTx interface {
	Savepoint(ctx context.Context, fn func(sp BatchTx) error) error

	GetSession(ctx context.Context, tenantID, sessionID string) (*Session, error)
	GetEnrollment(ctx context.Context, tenantID, studentID, subjectID, batchID string) (*Enrollment, error)

	// GetBySessionStudent resolves the canonical record by composite key;
	// returns nil when no record exists yet.
	GetBySessionStudent(ctx context.Context, sessionID, studentID string) (*Record, error)

	Insert(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	AppendAudit(ctx context.Context, entry *audit.Entry) error
}
