package roster

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) activeSessionOp() huma.Operation {
	return huma.Operation{
		OperationID: "faculty-active-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/faculty/session/active",
		Summary:     "Current session for the calling faculty",
		Description: "Returns the session inside the capture window with the enrolled roster and risk tiers",
		Tags:        []string{"roster"},
		Middlewares: h.middleware,
	}
}
