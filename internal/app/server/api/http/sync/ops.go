package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) bulkSyncOp() huma.Operation {
	return huma.Operation{
		OperationID: "attendance-bulk-sync",
		Method:      http.MethodPost,
		Path:        "/api/v1/attendance/bulk-sync",
		Summary:     "Reconcile a batch of queued attendance marks",
		Description: "Accepts device-queued marks and returns one outcome per record, in input order",
		Tags:        []string{"attendance"},
		Middlewares: h.middleware,
	}
}
