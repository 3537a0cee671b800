package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendsync/internal/domain/audit"
)

// AuditRepository reads the append-only attendance audit ledger. Writes go
// through the batch transaction only.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) ListByAction(ctx context.Context, tenantID string, action audit.Action, limit int) ([]audit.Entry, error) {
	const query = `
		SELECT id, tenant_id, attendance_id, actor_id, action, payload, created_at
		FROM attendance_audit
		WHERE tenant_id = $1 AND action = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, tenantID, action, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit by action: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *AuditRepository) ListByAttendance(ctx context.Context, tenantID, attendanceID string) ([]audit.Entry, error) {
	const query = `
		SELECT id, tenant_id, attendance_id, actor_id, action, payload, created_at
		FROM attendance_audit
		WHERE tenant_id = $1 AND attendance_id = $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, tenantID, attendanceID)
	if err != nil {
		return nil, fmt.Errorf("list audit by attendance: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]audit.Entry, error) {
	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.AttendanceID, &e.ActorID,
			&e.Action, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
