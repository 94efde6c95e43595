package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/service-desk/internal/audit"
)

var auditLogColumns = []string{
	"id", "organization_id", "resource_type", "resource_id", "action",
	"actor_id", "actor_role", "from_state", "to_state", "reason", "metadata", "occurred_at",
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository returns the Postgres batch writer for the audit sink.
func NewAuditLogRepository(pool *pgxpool.Pool) audit.BatchWriter {
	return &auditLogRepository{pool: pool}
}

// StoreBatch bulk-loads events with COPY; the batch lands in one statement.
func (r *auditLogRepository) StoreBatch(ctx context.Context, events []audit.Event) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		rows = append(rows, []any{
			e.ID,
			e.OrganizationID,
			e.ResourceType,
			e.ResourceID,
			e.Action,
			e.ActorID,
			string(e.ActorRole),
			string(e.FromState),
			string(e.ToState),
			e.Reason,
			metadata,
			e.OccurredAt,
		})
	}
	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"audit_logs"}, auditLogColumns, pgx.CopyFromRows(rows))
	return err
}
