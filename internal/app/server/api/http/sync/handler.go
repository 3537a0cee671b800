package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"attendsync/internal/app/server/api/http/middleware/auth"
	"attendsync/internal/app/server/metrics"
	"attendsync/internal/domain/attendance"
)

// batchFailure is the only batch-level error text clients ever see; the
// underlying cause goes to the log.
const batchFailure = "attendance sync failed"

type Handler struct {
	service    attendance.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service attendance.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.bulkSyncOp(), h.bulkSync)
}

func (h *Handler) bulkSync(ctx context.Context, input *bulkSyncInput) (*bulkSyncOutput, error) {
	identity, ok := auth.GetIdentity(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing caller identity")
	}

	results, err := h.service.ProcessBulk(ctx, identity.TenantID, identity.FacultyID, input.Body.Records)
	if err != nil {
		// internals stay in the log, same as per-record failure messages
		h.log.Error("bulk sync failed", "error", err)
		return &bulkSyncOutput{
			Body: BulkSyncResponse{
				Status: "Error",
				Error:  batchFailure,
			},
		}, nil
	}

	metrics.SyncBatches.Inc()
	for _, r := range results {
		metrics.SyncRecords.WithLabelValues(r.Status).Inc()
		if r.Conflict {
			metrics.SyncConflicts.Inc()
		}
	}

	return &bulkSyncOutput{
		Body: BulkSyncResponse{
			Status:  "Ok",
			Results: results,
		},
	}, nil
}
