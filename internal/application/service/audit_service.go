package service

import (
	"context"
	"encoding/json"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/event"
)

// AuditService records domain events in the audit log and serves its read
// side. Record is intentionally fire-and-forget: audit-trail problems must
// never block workflow progress, so failures are logged and swallowed.
type AuditService interface {
	Record(ctx context.Context, ev event.Entry)
	ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditEntry, error)
	List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	repo   port.AuditLogRepository
	logger Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo port.AuditLogRepository, logger Logger) AuditService {
	return &auditServiceImpl{repo: repo, logger: logger}
}

// Record persists a domain event as an audit entry
func (s *auditServiceImpl) Record(ctx context.Context, ev event.Entry) {
	entry := &entity.AuditEntry{
		EventID:     ev.ID,
		ActorID:     ev.ActorID,
		ActorRole:   ev.ActorRole,
		Action:      ev.Type.String(),
		Description: ev.Description,
		RequestID:   ev.RequestID,
		CreatedAt:   ev.Timestamp,
	}
	if len(ev.Metadata) > 0 {
		if raw, err := json.Marshal(ev.Metadata); err == nil {
			entry.Metadata = string(raw)
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record audit entry",
			"error", err, "action", ev.Type, "request_id", ev.RequestID)
	}
}

// ListByRequest returns the audit trail of a single request
func (s *auditServiceImpl) ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditEntry, error) {
	entries, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to list audit entries", "error", err, "request_id", requestID)
		return nil, err
	}
	return entries, nil
}

// List returns a paginated view of the global audit log
func (s *auditServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error) {
	entries, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list audit entries", "error", err)
		return nil, err
	}
	return entries, nil
}
