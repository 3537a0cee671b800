package roster

import "attendsync/internal/domain/attendance"

type activeSessionInput struct{}

type activeSessionOutput struct {
	Body ActiveSessionResponse
}

// ActiveSessionResponse carries the session with its roster; Data is null when
// the faculty has no session inside the capture window.
type ActiveSessionResponse struct {
	Status string                    `json:"status"`
	Error  string                    `json:"error,omitempty"`
	Data   *attendance.SessionRoster `json:"data"`
}
