package attendance

import "errors"

// Record-level reconciliation failures. Each fails exactly one record in a
// batch; none of them aborts sibling records.
var (
	ErrSessionNotFound    = errors.New("schedule session not found for record")
	ErrFacultyNotAssigned = errors.New("faculty is not assigned to this session")
	ErrEnrollmentNotFound = errors.New("student enrollment not found for subject/batch")
	ErrBadCapturedAt      = errors.New("invalid capturedAt timestamp")
	ErrBadStatus          = errors.New("invalid attendance status")
)

// ErrNoActiveSession is returned by the roster read path when the faculty has
// no session inside the active window.
var ErrNoActiveSession = errors.New("no active session for faculty")

// genericFailure is what a result message falls back to when the underlying
// error is not one of the record-level failures above; internal details stay
// out of client-visible messages.
const genericFailure = "attendance sync failed"

func isRecordFailure(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrFacultyNotAssigned) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrBadCapturedAt) ||
		errors.Is(err, ErrBadStatus)
}
