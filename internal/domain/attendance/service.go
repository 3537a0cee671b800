package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"attendsync/internal/domain/audit"
	"attendsync/internal/domain/risk"
)

// Capture window for the active-session lookup: a session counts as active
// from one hour before its start until three hours after, as long as it has
// not ended.
const (
	SessionWindowBefore = time.Hour
	SessionWindowAfter  = 3 * time.Hour
)

type Servicer interface {
	// ProcessBulk reconciles a batch of device-queued marks. The returned
	// slice has exactly one result per input record, in input order.
	ProcessBulk(ctx context.Context, tenantID, facultyID string, records []BulkRecord) ([]BulkResult, error)

	// ActiveSession returns the faculty's current session with the enrolled
	// roster and per-student risk tiers.
	ActiveSession(ctx context.Context, tenantID, facultyID string) (*SessionRoster, error)
}

// Service implements the batch reconciliation and roster read paths.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "attendance_service"),
		now:  time.Now,
	}
}

// ProcessBulk runs the whole batch inside one transaction; each record gets
// its own savepoint so a failing record rolls back alone while accepted
// siblings still commit. Records are processed strictly in array order, which
// also decides the winner when one batch carries duplicate (session, student)
// pairs: the later element wins by arrival.
func (s *Service) ProcessBulk(ctx context.Context, tenantID, facultyID string, records []BulkRecord) ([]BulkResult, error) {
	if len(records) == 0 {
		return []BulkResult{}, nil
	}

	results := make([]BulkResult, 0, len(records))
	err := s.repo.InBatch(ctx, func(tx BatchTx) error {
		for _, rec := range records {
			results = append(results, s.reconcileOne(ctx, tx, tenantID, facultyID, rec))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk sync transaction: %w", err)
	}

	s.log.Info("bulk sync processed",
		"tenant_id", tenantID,
		"faculty_id", facultyID,
		"records", len(records),
	)
	return results, nil
}

func (s *Service) reconcileOne(ctx context.Context, tx BatchTx, tenantID, facultyID string, rec BulkRecord) BulkResult {
	res := BulkResult{LocalID: rec.LocalID}

	var attendanceID string
	var conflict bool

	err := tx.Savepoint(ctx, func(sp BatchTx) error {
		session, err := sp.GetSession(ctx, tenantID, rec.SessionID)
		if err != nil {
			return fmt.Errorf("resolve session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.FacultyID != facultyID {
			return ErrFacultyNotAssigned
		}

		enrollment, err := sp.GetEnrollment(ctx, tenantID, rec.StudentID, session.SubjectID, session.BatchID)
		if err != nil {
			return fmt.Errorf("resolve enrollment: %w", err)
		}
		if enrollment == nil {
			return ErrEnrollmentNotFound
		}

		capturedAt, err := time.Parse(time.RFC3339, rec.CapturedAt)
		if err != nil {
			return ErrBadCapturedAt
		}
		if !rec.Status.Valid() {
			return ErrBadStatus
		}

		existing, err := sp.GetBySessionStudent(ctx, rec.SessionID, rec.StudentID)
		if err != nil {
			return fmt.Errorf("resolve canonical record: %w", err)
		}

		now := s.now()
		if existing == nil {
			created := &Record{
				ID:         uuid.NewString(),
				TenantID:   tenantID,
				SessionID:  rec.SessionID,
				StudentID:  rec.StudentID,
				FacultyID:  facultyID,
				Status:     rec.Status,
				CapturedAt: capturedAt,
				RecordedAt: now,
				UpdatedAt:  now,
				LocalID:    rec.LocalID,
				Metadata:   rec.Payload,
			}
			if err := sp.Insert(ctx, created); err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
			if err := sp.AppendAudit(ctx, s.auditEntry(tenantID, created.ID, facultyID, audit.ActionCreated, nil, rec)); err != nil {
				return fmt.Errorf("append audit: %w", err)
			}
			attendanceID = created.ID
			return nil
		}

		// Last-submission-wins: the write is applied either way, but a
		// canonical record that is newer than the submission, or a status
		// disagreement, is recorded as a conflict for later review.
		conflict = existing.UpdatedAt.After(capturedAt) || existing.Status != rec.Status
		previous := string(existing.Status)

		existing.Status = rec.Status
		existing.CapturedAt = capturedAt
		existing.LocalID = rec.LocalID
		existing.Metadata = rec.Payload
		existing.UpdatedAt = now
		if err := sp.Update(ctx, existing); err != nil {
			return fmt.Errorf("update record: %w", err)
		}

		action := audit.ActionUpdated
		if conflict {
			action = audit.ActionConflict
		}
		if err := sp.AppendAudit(ctx, s.auditEntry(tenantID, existing.ID, facultyID, action, &previous, rec)); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		attendanceID = existing.ID
		return nil
	})

	if err != nil {
		res.Status = OutcomeFailed
		if isRecordFailure(err) {
			res.Message = err.Error()
		} else {
			s.log.Error("record reconciliation failed",
				"local_id", rec.LocalID, "session_id", rec.SessionID, "error", err)
			res.Message = genericFailure
		}
		return res
	}

	res.Status = OutcomeSynced
	res.AttendanceID = attendanceID
	res.Conflict = conflict
	return res
}

func (s *Service) auditEntry(tenantID, attendanceID, actorID string, action audit.Action, previous *string, rec BulkRecord) *audit.Entry {
	return &audit.Entry{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		AttendanceID: attendanceID,
		ActorID:      actorID,
		Action:       action,
		Payload: audit.Payload{
			PreviousStatus: previous,
			NextStatus:     string(rec.Status),
			LocalID:        rec.LocalID,
			CapturedAt:     rec.CapturedAt,
			Metadata:       rec.Payload,
		},
		CreatedAt: s.now(),
	}
}

// ActiveSession resolves the faculty's session inside the capture window and
// attaches the enrolled roster, sorted by roll number, with risk tiers
// computed from each student's subject history.
func (s *Service) ActiveSession(ctx context.Context, tenantID, facultyID string) (*SessionRoster, error) {
	now := s.now()

	session, err := s.repo.SessionInWindow(ctx, tenantID, facultyID, now)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	enrollments, err := s.repo.ActiveEnrollments(ctx, tenantID, session.SubjectID, session.BatchID)
	if err != nil {
		return nil, fmt.Errorf("roster lookup: %w", err)
	}

	students := make([]RosterStudent, 0, len(enrollments))
	studentIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, RosterStudent{
			ID:          e.Student.ID,
			RollNumber:  e.Student.RollNumber,
			Name:        e.Student.Name,
			ParentPhone: e.Student.ParentPhone,
			ParentName:  e.Student.ParentName,
			RiskLevel:   risk.LevelLow,
		})
		studentIDs = append(studentIDs, e.Student.ID)
	}
	sort.Slice(students, func(i, j int) bool {
		return rollLess(students[i].RollNumber, students[j].RollNumber)
	})

	history, err := s.repo.SubjectHistory(ctx, tenantID, session.SubjectID, studentIDs, now.Add(-risk.Lookback))
	if err != nil {
		return nil, fmt.Errorf("history lookup: %w", err)
	}
	for i := range students {
		students[i].RiskLevel = risk.Classify(history[students[i].ID])
	}

	return &SessionRoster{
		SessionID:   session.ID,
		SubjectID:   session.SubjectID,
		SubjectName: session.SubjectName,
		BatchID:     session.BatchID,
		BatchName:   session.BatchName,
		ScheduledAt: session.StartsAt.UTC().Format(time.RFC3339),
		FacultyID:   session.FacultyID,
		FacultyName: session.FacultyName,
		Students:    students,
	}, nil
}

// rollLess compares roll numbers treating digit runs numerically, so "CS9"
// sorts before "CS10".
func rollLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := takeNumber(a)
			nb, rb := takeNumber(b)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func takeNumber(s string) (int64, string) {
	var n int64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
