package auditreview

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listConflictsOp() huma.Operation {
	return huma.Operation{
		OperationID: "audit-list-conflicts",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/conflicts",
		Summary:     "Recent conflict audit entries",
		Description: "Returns the newest conflict ledger entries for review",
		Tags:        []string{"audit"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) historyOp() huma.Operation {
	return huma.Operation{
		OperationID: "audit-attendance-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/attendance/{id}",
		Summary:     "Full ledger history for one attendance record",
		Description: "Returns every audit entry for the record, oldest first",
		Tags:        []string{"audit"},
		Middlewares: h.middleware,
	}
}
