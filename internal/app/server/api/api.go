// HTTP surface of the attendance sync server:
//
// GET  /api/v1/health                  # liveness (public)
// POST /api/v1/attendance/bulk-sync    # reconcile queued marks (auth)
// GET  /api/v1/faculty/session/active  # roster with risk tiers (auth)
// GET  /api/v1/audit/conflicts         # conflict review (auth)
// GET  /api/v1/audit/attendance/{id}   # per-record ledger history (auth)
// GET  /metrics                        # prometheus (public)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	auditAPI "attendsync/internal/app/server/api/http/auditreview"
	healthAPI "attendsync/internal/app/server/api/http/health"
	"attendsync/internal/app/server/api/http/middleware"
	"attendsync/internal/app/server/api/http/middleware/auth"
	"attendsync/internal/app/server/api/http/middleware/logger"
	rosterAPI "attendsync/internal/app/server/api/http/roster"
	syncAPI "attendsync/internal/app/server/api/http/sync"
	"attendsync/internal/app/server/config"
	"attendsync/internal/domain/attendance"
	"attendsync/internal/domain/audit"
	"attendsync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *healthAPI.Handler
	Sync   *syncAPI.Handler
	Roster *rosterAPI.Handler
	Audit  *auditAPI.Handler
}

// New builds the chi mux with every operation registered through huma.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Attendsync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Roster.SetupRoutes(API)
	h.Audit.SetupRoutes(API)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	authMW := auth.New(cfg.Server.Secret, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(storage, log, middlewares.GetAllAndClear())

	attendanceRepo := postgres.NewAttendanceRepository(storage.Pool(), log)
	attendanceService := attendance.NewService(attendanceRepo, log)

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(attendanceService, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	rosterHandler := rosterAPI.NewHandler(attendanceService, log, middlewares.GetAllAndClear())

	auditRepo := postgres.NewAuditRepository(storage.Pool())
	auditService := audit.NewService(auditRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	auditHandler := auditAPI.NewHandler(auditService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
		Roster: rosterHandler,
		Audit:  auditHandler,
	}
}
