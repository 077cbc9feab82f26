package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// memIdentityRepo is a stateful in-memory identity store
type memIdentityRepo struct {
	identities map[string]*entity.Identity
}

func newMemIdentityRepo(seed ...*entity.Identity) *memIdentityRepo {
	repo := &memIdentityRepo{identities: map[string]*entity.Identity{}}
	for _, identity := range seed {
		repo.identities[identity.ID] = identity
	}
	return repo
}

func (m *memIdentityRepo) Create(ctx context.Context, identity *entity.Identity) error {
	m.identities[identity.ID] = identity
	return nil
}

func (m *memIdentityRepo) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	return m.identities[id], nil
}

func (m *memIdentityRepo) Update(ctx context.Context, identity *entity.Identity) error {
	m.identities[identity.ID] = identity
	return nil
}

func (m *memIdentityRepo) List(ctx context.Context, limit, offset int) ([]*entity.Identity, error) {
	out := make([]*entity.Identity, 0, len(m.identities))
	for _, identity := range m.identities {
		out = append(out, identity)
	}
	return out, nil
}

func adminSeed() *entity.Identity {
	return &entity.Identity{ID: "admin-01", Name: "Fleet Admin", Role: workflow.RoleAdmin}
}

func TestIdentityService_Create(t *testing.T) {
	repo := newMemIdentityRepo(adminSeed())
	audit := &mockAuditService{}
	svc := NewIdentityService(repo, audit, noopLogger{})

	err := svc.Create(context.Background(), "admin-01", &entity.Identity{
		ID: "sup-02", Name: "B. Asante", Role: workflow.RoleSupervisor,
	})

	require.NoError(t, err)
	stored, _ := repo.GetByID(context.Background(), "sup-02")
	require.NotNil(t, stored)
	assert.Equal(t, workflow.RoleSupervisor, stored.Role)
	assert.Len(t, audit.recorded, 1)
}

func TestIdentityService_CreateRejected(t *testing.T) {
	repo := newMemIdentityRepo(adminSeed(),
		&entity.Identity{ID: "sup-01", Name: "K. Boateng", Role: workflow.RoleSupervisor})
	svc := NewIdentityService(repo, &mockAuditService{}, noopLogger{})

	tests := []struct {
		name     string
		actorID  string
		identity *entity.Identity
		wantErr  error
	}{
		{"non-manager actor", "sup-01", &entity.Identity{ID: "x", Name: "X", Role: workflow.RoleStaff}, workflow.ErrAuthorization},
		{"unknown actor", "ghost", &entity.Identity{ID: "x", Name: "X", Role: workflow.RoleStaff}, workflow.ErrAuthorization},
		{"missing id", "admin-01", &entity.Identity{Name: "X", Role: workflow.RoleStaff}, workflow.ErrValidation},
		{"unknown role", "admin-01", &entity.Identity{ID: "x", Name: "X", Role: "JANITOR"}, workflow.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tt.actorID, tt.identity)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIdentityService_SetDelegation(t *testing.T) {
	repo := newMemIdentityRepo(adminSeed(),
		&entity.Identity{ID: "staff-014", Name: "A. Tetteh", Role: workflow.RoleStaff})
	audit := &mockAuditService{}
	svc := NewIdentityService(repo, audit, noopLogger{})

	start := time.Now()
	err := svc.SetDelegation(context.Background(), "admin-01", "staff-014", entity.Delegation{
		Role:  workflow.RoleSupervisor,
		Start: start,
		End:   start.Add(7 * 24 * time.Hour),
	})

	require.NoError(t, err)
	stored, _ := repo.GetByID(context.Background(), "staff-014")
	require.NotNil(t, stored.Delegation)
	assert.Equal(t, workflow.RoleSupervisor, stored.EffectiveRole(start.Add(time.Hour)))
	assert.Len(t, audit.recorded, 1)

	require.NoError(t, svc.ClearDelegation(context.Background(), "admin-01", "staff-014"))
	stored, _ = repo.GetByID(context.Background(), "staff-014")
	assert.Nil(t, stored.Delegation)
}

func TestIdentityService_SetDelegationInvalidWindow(t *testing.T) {
	repo := newMemIdentityRepo(adminSeed(),
		&entity.Identity{ID: "staff-014", Name: "A. Tetteh", Role: workflow.RoleStaff})
	svc := NewIdentityService(repo, &mockAuditService{}, noopLogger{})

	start := time.Now()
	err := svc.SetDelegation(context.Background(), "admin-01", "staff-014", entity.Delegation{
		Role:  workflow.RoleSupervisor,
		Start: start,
		End:   start,
	})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	err = svc.SetDelegation(context.Background(), "admin-01", "ghost", entity.Delegation{
		Role:  workflow.RoleSupervisor,
		Start: start,
		End:   start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestIdentityService_EnsureSeed(t *testing.T) {
	repo := newMemIdentityRepo()
	svc := NewIdentityService(repo, &mockAuditService{}, noopLogger{})

	require.NoError(t, svc.EnsureSeed(context.Background(), "admin-01", "Fleet Admin"))
	stored, _ := repo.GetByID(context.Background(), "admin-01")
	require.NotNil(t, stored)
	assert.Equal(t, workflow.RoleAdmin, stored.Role)

	// idempotent: a second boot must not overwrite the record
	stored.Name = "Renamed Admin"
	require.NoError(t, svc.EnsureSeed(context.Background(), "admin-01", "Fleet Admin"))
	again, _ := repo.GetByID(context.Background(), "admin-01")
	assert.Equal(t, "Renamed Admin", again.Name)
}
