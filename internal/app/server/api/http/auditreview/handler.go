package auditreview

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"attendsync/internal/app/server/api/http/middleware/auth"
	"attendsync/internal/domain/audit"
)

type Handler struct {
	service    audit.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service audit.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listConflictsOp(), h.listConflicts)
	huma.Register(api, h.historyOp(), h.history)
}

func (h *Handler) listConflicts(ctx context.Context, input *listConflictsInput) (*listConflictsOutput, error) {
	identity, ok := auth.GetIdentity(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing caller identity")
	}

	entries, err := h.service.ListConflicts(ctx, identity.TenantID, input.Limit)
	if err != nil {
		return &listConflictsOutput{
			Body: ListConflictsResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &listConflictsOutput{
		Body: ListConflictsResponse{
			Status: "Ok",
			Data:   entries,
		},
	}, nil
}

func (h *Handler) history(ctx context.Context, input *historyInput) (*historyOutput, error) {
	identity, ok := auth.GetIdentity(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing caller identity")
	}

	entries, err := h.service.History(ctx, identity.TenantID, input.ID)
	if err != nil {
		return &historyOutput{
			Body: HistoryResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &historyOutput{
		Body: HistoryResponse{
			Status: "Ok",
			Data:   entries,
		},
	}, nil
}
