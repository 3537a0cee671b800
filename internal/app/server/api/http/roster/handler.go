package roster

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"attendsync/internal/app/server/api/http/middleware/auth"
	"attendsync/internal/domain/attendance"
)

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
	huma.Register(api, h.activeSessionOp(), h.activeSession)
}

func (h *Handler) activeSession(ctx context.Context, _ *activeSessionInput) (*activeSessionOutput, error) {
	identity, ok := auth.GetIdentity(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing caller identity")
	}

	roster, err := h.service.ActiveSession(ctx, identity.TenantID, identity.FacultyID)
	if err != nil {
		if errors.Is(err, attendance.ErrNoActiveSession) {
			return &activeSessionOutput{
				Body: ActiveSessionResponse{Status: "Ok"},
			}, nil
		}
		h.log.Error("active session lookup failed", "error", err)
		return &activeSessionOutput{
			Body: ActiveSessionResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &activeSessionOutput{
		Body: ActiveSessionResponse{
			Status: "Ok",
			Data:   roster,
		},
	}, nil
}
