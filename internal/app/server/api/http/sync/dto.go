package sync

import "attendsync/internal/domain/attendance"

type bulkSyncInput struct {
	Body BulkSyncRequest
}

type BulkSyncRequest struct {
	Records []attendance.BulkRecord `json:"records" maxItems:"500"`
}

type bulkSyncOutput struct {
	Body BulkSyncResponse
}

type BulkSyncResponse struct {
	Status  string                  `json:"status"`
	Error   string                  `json:"error,omitempty"`
	Results []attendance.BulkResult `json:"results"`
}
