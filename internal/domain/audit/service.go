package audit

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

const defaultReviewLimit = 100

// Repository is the read side of the ledger. Writes happen inside the
// reconciler's batch transaction, not here.
type Repository interface {
	ListByAction(ctx context.Context, tenantID string, action Action, limit int) ([]Entry, error)
	ListByAttendance(ctx context.Context, tenantID, attendanceID string) ([]Entry, error)
}

type Servicer interface {
	ListConflicts(ctx context.Context, tenantID string, limit int) ([]Entry, error)
	History(ctx context.Context, tenantID, attendanceID string) ([]Entry, error)
}

// Service exposes the ledger for forensic review of conflict decisions.
type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "audit_service"),
	}
}

// ListConflicts returns the most recent conflict entries for a tenant.
func (s *Service) ListConflicts(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > defaultReviewLimit {
		limit = defaultReviewLimit
	}

	entries, err := s.repo.ListByAction(ctx, tenantID, ActionConflict, limit)
	if err != nil {
		s.log.Error("failed to list conflict entries", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return entries, nil
}

// History returns every ledger entry for one attendance record, oldest first,
// so a reviewer can replay the full state transition chain.
func (s *Service) History(ctx context.Context, tenantID, attendanceID string) ([]Entry, error) {
	entries, err := s.repo.ListByAttendance(ctx, tenantID, attendanceID)
	if err != nil {
		s.log.Error("failed to list audit history",
			"tenant_id", tenantID, "attendance_id", attendanceID, "error", err)
		return nil, fmt.Errorf("audit history: %w", err)
	}
	return entries, nil
}
