package attendance

import "time"

// Status of a single attendance mark.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid reports whether the status is one of the accepted mark values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Record is the canonical server-owned attendance state. At most one record
// exists per (SessionID, StudentID); that uniqueness is what makes the whole
// reconciliation idempotent.
type Record struct {
	ID         string
	TenantID   string
	SessionID  string
	StudentID  string
	FacultyID  string
	Status     Status
	CapturedAt time.Time
	RecordedAt time.Time
	UpdatedAt  time.Time
	LocalID    string
	Metadata   map[string]any
}

// Session is a scheduled teaching slot resolved during reconciliation and
// roster assembly.
type Session struct {
	ID          string
	TenantID    string
	SubjectID   string
	SubjectName string
	BatchID     string
	BatchName   string
	FacultyID   string
	FacultyName string
	StartsAt    time.Time
	EndsAt      time.Time
}

// Student identity as carried on the roster.
type Student struct {
	ID          string
	Name        string
	RollNumber  string
	ParentName  string
	ParentPhone string
}

// Enrollment ties a student to a subject/batch pair within a tenant.
type Enrollment struct {
	ID        string
	TenantID  string
	StudentID string
	SubjectID string
	BatchID   string
	Status    string
	Student   Student
}
