package client

import "time"

// Sync states of a queued mark. A failed mark stays in the queue and rides
// along with the next flush.
const (
	StatePending = "pending"
	StateSynced  = "synced"
	StateFailed  = "failed"
)

// QueuedMark is one locally captured attendance mark waiting in the durable
// queue. LocalID is the device-generated correlation id; the server echoes it
// back in the per-record outcome.
type QueuedMark struct {
	LocalID       string         `json:"localId"`
	TenantID      string         `json:"tenantId"`
	SessionID     string         `json:"sessionId"`
	StudentID     string         `json:"studentId"`
	Status        string         `json:"status"`
	CapturedAt    string         `json:"capturedAt"`
	Payload       map[string]any `json:"payload,omitempty"`
	SyncState     string         `json:"syncState"`
	QueuedAt      time.Time      `json:"queuedAt"`
	LastAttemptAt *time.Time     `json:"lastAttemptAt,omitempty"`
}

// FlushResult summarizes one flush round trip.
type FlushResult struct {
	Total     int
	Succeeded int
	Failed    int
	Conflicts int
}

// TenantSettings is the per-tenant bookkeeping row.
type TenantSettings struct {
	TenantID      string
	LastSyncAt    *time.Time
	LastSucceeded int
	LastFailed    int
	LastConflicts int
}
