package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
)

// IdentityRepository implements port.IdentityRepository
type IdentityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *sql.DB, logger *zap.Logger) port.IdentityRepository {
	return &IdentityRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new identity
func (r *IdentityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		INSERT INTO identities (
			id, name, role, delegated_role, delegation_start, delegation_end,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	delegatedRole, start, end := delegationColumns(identity.Delegation)
	if _, err := ex.ExecContext(ctx, query,
		identity.ID,
		identity.Name,
		identity.Role.String(),
		delegatedRole, start, end,
		identity.CreatedAt,
		identity.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create identity", zap.String("id", identity.ID), zap.Error(err))
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// GetByID retrieves an identity, or nil when it does not exist
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, name, role, delegated_role, delegation_start, delegation_end,
			created_at, updated_at
		FROM identities WHERE id = ?
	`
	identity, err := scanIdentity(ex.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get identity", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identity, nil
}

// Update replaces an identity's role and delegation
func (r *IdentityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		UPDATE identities SET
			name = ?, role = ?, delegated_role = ?, delegation_start = ?,
			delegation_end = ?, updated_at = ?
		WHERE id = ?
	`
	delegatedRole, start, end := delegationColumns(identity.Delegation)
	if _, err := ex.ExecContext(ctx, query,
		identity.Name,
		identity.Role.String(),
		delegatedRole, start, end,
		identity.UpdatedAt,
		identity.ID,
	); err != nil {
		r.logger.Error("Failed to update identity", zap.String("id", identity.ID), zap.Error(err))
		return fmt.Errorf("failed to update identity: %w", err)
	}
	return nil
}

// List retrieves a paginated list of identities
func (r *IdentityRepository) List(ctx context.Context, limit, offset int) ([]*entity.Identity, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, name, role, delegated_role, delegation_start, delegation_end,
			created_at, updated_at
		FROM identities ORDER BY id LIMIT ? OFFSET ?
	`
	rows, err := ex.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list identities", zap.Error(err))
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []*entity.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func delegationColumns(d *entity.Delegation) (role, start, end interface{}) {
	if d == nil {
		return nil, nil, nil
	}
	return d.Role.String(), d.Start, d.End
}

func scanIdentity(row rowScanner) (*entity.Identity, error) {
	var identity entity.Identity
	var role string
	var delegatedRole sql.NullString
	var delegationStart, delegationEnd sql.NullTime

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&role,
		&delegatedRole,
		&delegationStart,
		&delegationEnd,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Role = workflow.Role(role)
	if delegatedRole.Valid {
		identity.Delegation = &entity.Delegation{
			Role:  workflow.Role(delegatedRole.String),
			Start: delegationStart.Time,
			End:   delegationEnd.Time,
		}
	}
	return &identity, nil
}
