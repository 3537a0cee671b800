package audit

import "time"

// Action describes the decision the reconciler took for an accepted mutation.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionConflict Action = "conflict"
)

// Payload is the snapshot stored with every entry. PreviousStatus is nil for
// created entries. LocalID ties the mutation back to the originating device
// queue entry.
type Payload struct {
	PreviousStatus *string        `json:"previousStatus,omitempty"`
	NextStatus     string         `json:"nextStatus"`
	LocalID        string         `json:"localId"`
	CapturedAt     string         `json:"capturedAt"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Entry is one row of the append-only ledger. Entries are written in the same
// transaction as the attendance mutation they describe and are never updated
// or deleted.
type Entry struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	AttendanceID string    `json:"attendanceId"`
	ActorID      string    `json:"actorId"`
	Action       Action    `json:"action" enum:"created,updated,conflict"`
	Payload      Payload   `json:"payload"`
	CreatedAt    time.Time `json:"createdAt"`
}
