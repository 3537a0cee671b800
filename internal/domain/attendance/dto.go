package attendance

import "attendsync/internal/domain/risk"

// BulkRecord is one queued mark as submitted by a device. TenantID and
// FacultyID are deliberately absent: they come from the authenticated caller,
// never from the payload.
type BulkRecord struct {
	LocalID    string         `json:"localId"`
	SessionID  string         `json:"sessionId"`
	StudentID  string         `json:"studentId"`
	CapturedAt string         `json:"capturedAt" format:"date-time"`
	Status     Status         `json:"status" enum:"present,absent,late"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Bulk sync outcome values.
const (
	OutcomeSynced = "synced"
	OutcomeFailed = "failed"
)

// BulkResult is the per-record outcome. Every input record yields exactly one
// result carrying its LocalID.
type BulkResult struct {
	LocalID      string `json:"localId"`
	Status       string `json:"status" enum:"synced,failed"`
	AttendanceID string `json:"attendanceId,omitempty"`
	Conflict     bool   `json:"conflict,omitempty"`
	Message      string `json:"message,omitempty"`
}

// RosterStudent is one enrolled student with the derived risk tier attached.
type RosterStudent struct {
	ID          string     `json:"id"`
	RollNumber  string     `json:"rollNumber"`
	Name        string     `json:"name"`
	ParentPhone string     `json:"parentPhone"`
	ParentName  string     `json:"parentName,omitempty"`
	RiskLevel   risk.Level `json:"riskLevel" enum:"low,medium,high"`
}

// SessionRoster is the active session with its enrolled students, used by the
// capture UI and cached on devices for offline operation.
type SessionRoster struct {
	SessionID   string          `json:"sessionId"`
	SubjectID   string          `json:"subjectId"`
	SubjectName string          `json:"subjectName"`
	BatchID     string          `json:"batchId"`
	BatchName   string          `json:"batchName"`
	ScheduledAt string          `json:"scheduledAt" format:"date-time"`
	FacultyID   string          `json:"facultyId"`
	FacultyName string          `json:"facultyName"`
	Students    []RosterStudent `json:"students"`
}
