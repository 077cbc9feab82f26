package port

import (
	"context"

	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// RequestFilter narrows request listings. Zero values mean "no constraint";
// the workflow service builds filters from the actor's visibility rules.
type RequestFilter struct {
	RequesterID string
	Stages      []workflow.Stage
	Status      workflow.Status
	Limit       int
	Offset      int
}

// RequestRepository defines persistence operations for the Request aggregate.
// Save performs a compare-and-swap on the aggregate version: if the stored
// version differs from expectedVersion the save fails with
// workflow.ErrConcurrentModification and nothing is written.
type RequestRepository interface {
	Create(ctx context.Context, req *workflow.Request) error
	GetByID(ctx context.Context, id string) (*workflow.Request, error)
	Save(ctx context.Context, req *workflow.Request, expectedVersion int64) error
	List(ctx context.Context, filter RequestFilter) ([]*workflow.Request, error)
}

// IdentityRepository defines persistence operations for Identity
type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
	Update(ctx context.Context, identity *entity.Identity) error
	List(ctx context.Context, limit, offset int) ([]*entity.Identity, error)
}

// FacilityRepository defines persistence operations for Facility
type FacilityRepository interface {
	Create(ctx context.Context, facility *entity.Facility) error
	GetByID(ctx context.Context, id int64) (*entity.Facility, error)
	Update(ctx context.Context, facility *entity.Facility) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, search string, limit, offset int) ([]*entity.Facility, error)
}

// AuditLogRepository defines persistence operations for AuditEntry
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditEntry, error)
	List(ctx context.Context, limit, offset int) ([]*entity.AuditEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
