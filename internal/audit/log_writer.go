package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogWriter emits audit events as structured log lines. Used when no database is configured.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter builds a writer on top of logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger.Named("audit")}
}

func (w *LogWriter) StoreBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		w.logger.Info("audit event",
			zap.String("audit_id", e.ID),
			zap.String("organization_id", e.OrganizationID),
			zap.String("resource_type", e.ResourceType),
			zap.String("resource_id", e.ResourceID),
			zap.String("action", e.Action),
			zap.String("actor_id", e.ActorID),
			zap.String("actor_role", string(e.ActorRole)),
			zap.String("from_state", string(e.FromState)),
			zap.String("to_state", string(e.ToState)),
			zap.String("reason", e.Reason),
			zap.Any("metadata", e.Metadata),
			zap.Time("occurred_at", e.OccurredAt),
		)
	}
	return nil
}
