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

// FacilityRepository implements port.FacilityRepository
type FacilityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFacilityRepository creates a new facility repository
func NewFacilityRepository(db *sql.DB, logger *zap.Logger) port.FacilityRepository {
	return &FacilityRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new facility record
func (r *FacilityRepository) Create(ctx context.Context, facility *entity.Facility) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		INSERT INTO facilities (name, category, town, capacity, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := ex.ExecContext(ctx, query,
		facility.Name,
		facility.Category,
		facility.Town,
		facility.Capacity,
		facility.Notes,
		facility.CreatedAt,
		facility.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create facility", zap.String("name", facility.Name), zap.Error(err))
		return fmt.Errorf("failed to create facility: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	facility.ID = id
	return nil
}

// GetByID retrieves a facility, or nil when it does not exist
func (r *FacilityRepository) GetByID(ctx context.Context, id int64) (*entity.Facility, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, name, category, town, capacity, notes, created_at, updated_at
		FROM facilities WHERE id = ?
	`
	facility, err := scanFacility(ex.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get facility", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return facility, nil
}

// Update replaces a facility record
func (r *FacilityRepository) Update(ctx context.Context, facility *entity.Facility) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		UPDATE facilities SET name = ?, category = ?, town = ?, capacity = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := ex.ExecContext(ctx, query,
		facility.Name,
		facility.Category,
		facility.Town,
		facility.Capacity,
		facility.Notes,
		facility.UpdatedAt,
		facility.ID,
	); err != nil {
		r.logger.Error("Failed to update facility", zap.Int64("id", facility.ID), zap.Error(err))
		return fmt.Errorf("failed to update facility: %w", err)
	}
	return nil
}

// Delete removes a facility record
func (r *FacilityRepository) Delete(ctx context.Context, id int64) error {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	if _, err := ex.ExecContext(ctx, "DELETE FROM facilities WHERE id = ?", id); err != nil {
		r.logger.Error("Failed to delete facility", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete facility: %w", err)
	}
	return nil
}

// List retrieves facilities, optionally filtered by a name search term
func (r *FacilityRepository) List(ctx context.Context, search string, limit, offset int) ([]*entity.Facility, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, name, category, town, capacity, notes, created_at, updated_at
		FROM facilities
	`
	var args []interface{}
	if search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list facilities", zap.Error(err))
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*entity.Facility
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, facility)
	}
	return facilities, rows.Err()
}

func scanFacility(row rowScanner) (*entity.Facility, error) {
	var facility entity.Facility
	var notes sql.NullString

	err := row.Scan(
		&facility.ID,
		&facility.Name,
		&facility.Category,
		&facility.Town,
		&facility.Capacity,
		&notes,
		&facility.CreatedAt,
		&facility.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	facility.Notes = notes.String
	return &facility, nil
}
