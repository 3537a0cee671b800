package auditreview

import "attendsync/internal/domain/audit"

type listConflictsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"100"`
}

type listConflictsOutput struct {
	Body ListConflictsResponse
}

type ListConflictsResponse struct {
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`
	Data   []audit.Entry `json:"data"`
}

type historyInput struct {
	ID string `path:"id" doc:"Attendance record id"`
}

type historyOutput struct {
	Body HistoryResponse
}

type HistoryResponse struct {
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`
	Data   []audit.Entry `json:"data"`
}
