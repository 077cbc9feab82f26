package service

import (
	"context"
	"fmt"
	"time"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/event"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// FacilityService manages facility records: plain CRUD with pagination and
// name search. Mutations require the manage_facilities permission and are
// audit-logged.
type FacilityService interface {
	Create(ctx context.Context, actorID string, facility *entity.Facility) error
	Get(ctx context.Context, id int64) (*entity.Facility, error)
	Update(ctx context.Context, actorID string, facility *entity.Facility) error
	Delete(ctx context.Context, actorID string, id int64) error
	List(ctx context.Context, search string, limit, offset int) ([]*entity.Facility, error)
}

type facilityServiceImpl struct {
	repo       port.FacilityRepository
	identities port.IdentityRepository
	audit      AuditService
	logger     Logger
}

// NewFacilityService creates a new FacilityService
func NewFacilityService(
	repo port.FacilityRepository,
	identities port.IdentityRepository,
	audit AuditService,
	logger Logger,
) FacilityService {
	return &facilityServiceImpl{
		repo:       repo,
		identities: identities,
		audit:      audit,
		logger:     logger,
	}
}

// Create registers a new facility record
func (s *facilityServiceImpl) Create(ctx context.Context, actorID string, facility *entity.Facility) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}
	if facility.Name == "" || facility.Town == "" {
		return fmt.Errorf("%w: facility name and town are required", workflow.ErrValidation)
	}

	now := time.Now()
	facility.CreatedAt = now
	facility.UpdatedAt = now
	if err := s.repo.Create(ctx, facility); err != nil {
		s.logger.Error("Failed to create facility", "error", err, "name", facility.Name)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeFacilityChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("created facility %q in %s", facility.Name, facility.Town), now))
	s.logger.Info("Facility created", "facility_id", facility.ID, "name", facility.Name)
	return nil
}

// Get retrieves a facility by ID
func (s *facilityServiceImpl) Get(ctx context.Context, id int64) (*entity.Facility, error) {
	facility, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get facility", "error", err, "facility_id", id)
		return nil, err
	}
	if facility == nil {
		return nil, fmt.Errorf("%w: facility %d", workflow.ErrNotFound, id)
	}
	return facility, nil
}

// Update replaces a facility record
func (s *facilityServiceImpl) Update(ctx context.Context, actorID string, facility *entity.Facility) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}

	existing, err := s.Get(ctx, facility.ID)
	if err != nil {
		return err
	}

	facility.CreatedAt = existing.CreatedAt
	facility.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, facility); err != nil {
		s.logger.Error("Failed to update facility", "error", err, "facility_id", facility.ID)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeFacilityChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("updated facility %q", facility.Name), facility.UpdatedAt))
	return nil
}

// Delete removes a facility record
func (s *facilityServiceImpl) Delete(ctx context.Context, actorID string, id int64) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}

	facility, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete facility", "error", err, "facility_id", id)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeFacilityChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("deleted facility %q", facility.Name), time.Now()))
	return nil
}

// List retrieves facilities with optional name search
func (s *facilityServiceImpl) List(ctx context.Context, search string, limit, offset int) ([]*entity.Facility, error) {
	facilities, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list facilities", "error", err)
		return nil, err
	}
	return facilities, nil
}

func (s *facilityServiceImpl) requireManager(ctx context.Context, actorID string) (workflow.Actor, error) {
	identity, err := s.identities.GetByID(ctx, actorID)
	if err != nil {
		return workflow.Actor{}, err
	}
	if identity == nil {
		return workflow.Actor{}, fmt.Errorf("%w: unknown actor %q", workflow.ErrAuthorization, actorID)
	}

	actor := workflow.Actor{ID: identity.ID, Role: identity.EffectiveRole(time.Now())}
	if !workflow.HasPermission(actor.Role, workflow.PermManageFacilities) {
		return workflow.Actor{}, fmt.Errorf("%w: role %s cannot manage facilities", workflow.ErrAuthorization, actor.Role)
	}
	return actor, nil
}
