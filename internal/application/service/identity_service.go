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

// IdentityService manages organizational identities and their temporary
// role delegations. Mutations require the manage_identities permission and
// are audit-logged. Credential issuance is out of scope: identities are
// records, not accounts.
type IdentityService interface {
	Create(ctx context.Context, actorID string, identity *entity.Identity) error
	Get(ctx context.Context, id string) (*entity.Identity, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Identity, error)
	SetDelegation(ctx context.Context, actorID, identityID string, d entity.Delegation) error
	ClearDelegation(ctx context.Context, actorID, identityID string) error
	EnsureSeed(ctx context.Context, id, name string) error
}

type identityServiceImpl struct {
	repo   port.IdentityRepository
	audit  AuditService
	logger Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(repo port.IdentityRepository, audit AuditService, logger Logger) IdentityService {
	return &identityServiceImpl{repo: repo, audit: audit, logger: logger}
}

// Create registers a new identity
func (s *identityServiceImpl) Create(ctx context.Context, actorID string, identity *entity.Identity) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}
	if identity.ID == "" || identity.Name == "" {
		return fmt.Errorf("%w: identity id and name are required", workflow.ErrValidation)
	}
	if !identity.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", workflow.ErrValidation, identity.Role)
	}

	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	if err := s.repo.Create(ctx, identity); err != nil {
		s.logger.Error("Failed to create identity", "error", err, "identity_id", identity.ID)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeDelegationChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("created identity %s with role %s", identity.ID, identity.Role), now))
	s.logger.Info("Identity created", "identity_id", identity.ID, "role", identity.Role)
	return nil
}

// Get retrieves an identity by ID
func (s *identityServiceImpl) Get(ctx context.Context, id string) (*entity.Identity, error) {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get identity", "error", err, "identity_id", id)
		return nil, err
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: identity %q", workflow.ErrNotFound, id)
	}
	return identity, nil
}

// List retrieves a paginated list of identities
func (s *identityServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Identity, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetDelegation grants a temporary role for the given validity window
func (s *identityServiceImpl) SetDelegation(ctx context.Context, actorID, identityID string, d entity.Delegation) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}
	if !d.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", workflow.ErrValidation, d.Role)
	}
	if !d.End.After(d.Start) {
		return fmt.Errorf("%w: delegation window must end after it starts", workflow.ErrValidation)
	}

	identity, err := s.Get(ctx, identityID)
	if err != nil {
		return err
	}

	identity.Delegation = &d
	identity.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, identity); err != nil {
		s.logger.Error("Failed to set delegation", "error", err, "identity_id", identityID)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeDelegationChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("delegated role %s to %s until %s", d.Role, identityID, d.End.Format(time.RFC3339)),
		identity.UpdatedAt))
	s.logger.Info("Delegation set", "identity_id", identityID, "role", d.Role)
	return nil
}

// ClearDelegation removes any delegation from the identity
func (s *identityServiceImpl) ClearDelegation(ctx context.Context, actorID, identityID string) error {
	actor, err := s.requireManager(ctx, actorID)
	if err != nil {
		return err
	}

	identity, err := s.Get(ctx, identityID)
	if err != nil {
		return err
	}

	identity.Delegation = nil
	identity.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, identity); err != nil {
		s.logger.Error("Failed to clear delegation", "error", err, "identity_id", identityID)
		return err
	}

	s.audit.Record(ctx, event.New(event.TypeDelegationChanged, "", actor.ID, actor.Role.String(),
		fmt.Sprintf("cleared delegation of %s", identityID), identity.UpdatedAt))
	return nil
}

// EnsureSeed creates the bootstrap admin identity if it does not exist.
// Called once at startup so a fresh deployment has an actor able to manage
// identities.
func (s *identityServiceImpl) EnsureSeed(ctx context.Context, id, name string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := time.Now()
	seed := &entity.Identity{
		ID:        id,
		Name:      name,
		Role:      workflow.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, seed); err != nil {
		return fmt.Errorf("seed admin identity: %w", err)
	}

	s.logger.Info("Seed admin identity created", "identity_id", id)
	return nil
}

func (s *identityServiceImpl) requireManager(ctx context.Context, actorID string) (workflow.Actor, error) {
	identity, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return workflow.Actor{}, err
	}
	if identity == nil {
		return workflow.Actor{}, fmt.Errorf("%w: unknown actor %q", workflow.ErrAuthorization, actorID)
	}

	actor := workflow.Actor{ID: identity.ID, Role: identity.EffectiveRole(time.Now())}
	if !workflow.HasPermission(actor.Role, workflow.PermManageIdentities) {
		return workflow.Actor{}, fmt.Errorf("%w: role %s cannot manage identities", workflow.ErrAuthorization, actor.Role)
	}
	return actor, nil
}
