package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
)

// AuditLogRepository implements port.AuditLogRepository
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		INSERT INTO audit_logs (
			event_id, actor_id, actor_role, action, description,
			request_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := ex.ExecContext(ctx, query,
		entry.EventID,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.Description,
		entry.RequestID,
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit entry", zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByRequest returns the audit trail of a single request, oldest first
func (r *AuditLogRepository) ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditEntry, error) {
	return r.list(ctx, "WHERE request_id = ? ORDER BY created_at", requestID)
}

// List returns a paginated global view of the audit log, newest first
func (r *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error) {
	return r.list(ctx, "ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
}

func (r *AuditLogRepository) list(ctx context.Context, clause string, args ...interface{}) ([]*entity.AuditEntry, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, event_id, actor_id, actor_role, action, description,
			request_id, metadata, created_at
		FROM audit_logs ` + clause

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		var requestID, metadata sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Action,
			&entry.Description,
			&requestID,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.RequestID = requestID.String
		entry.Metadata = metadata.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
