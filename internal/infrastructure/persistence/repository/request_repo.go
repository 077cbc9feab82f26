package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository on sqlite. The
// aggregate spans three tables: requests (root row, carries the version),
// stage_approvals and notifications. Saves are compare-and-swap on the
// version column so concurrent transitions on the same request serialize:
// the loser observes zero affected rows and gets ErrConcurrentModification.
type RequestRepository struct {
	db     *sql.DB
	tx     port.TransactionManager
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, tx port.TransactionManager, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		tx:     tx,
		logger: logger,
	}
}

// Create persists a freshly submitted aggregate at version 0
func (r *RequestRepository) Create(ctx context.Context, req *workflow.Request) error {
	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ex := sqlite.ExecutorFrom(txCtx, r.db)

		query := `
			INSERT INTO requests (
				id, requester_id, trip_type, destination, purpose,
				departure_time, passenger_count, current_stage, status,
				version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`
		if _, err := ex.ExecContext(txCtx, query,
			req.ID,
			req.RequesterID,
			string(req.TripType),
			req.Destination,
			req.Purpose,
			req.DepartureTime,
			req.PassengerCount,
			req.CurrentStage.String(),
			req.Status.String(),
			req.CreatedAt,
			req.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}

		if err := r.writeApprovals(txCtx, ex, req); err != nil {
			return err
		}
		return r.appendNotifications(txCtx, ex, req, 0)
	})

	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return err
	}

	req.Version = 0
	return nil
}

// GetByID loads the full aggregate, or nil when the request does not exist
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*workflow.Request, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	query := selectRequestColumns + " FROM requests WHERE id = ?"
	req, err := scanRequest(ex.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: get request: %v", workflow.ErrStorageUnavailable, err)
	}

	if err := r.loadChildren(ctx, ex, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Save persists the mutated aggregate if and only if the stored version
// still equals expectedVersion, then bumps the version by one
func (r *RequestRepository) Save(ctx context.Context, req *workflow.Request, expectedVersion int64) error {
	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ex := sqlite.ExecutorFrom(txCtx, r.db)

		query := `
			UPDATE requests SET
				current_stage = ?, status = ?,
				declined_by = ?, declined_role = ?, decline_reason = ?, declined_at = ?,
				vehicle_id = ?, plate_number = ?, driver_name = ?, driver_contact = ?,
				urgent = ?, assigned_by = ?, assigned_at = ?,
				updated_at = ?, version = version + 1
			WHERE id = ? AND version = ?
		`
		var declinedBy, declinedRole, declineReason interface{}
		var declinedAt interface{}
		if req.Decline != nil {
			declinedBy = req.Decline.ActorID
			declinedRole = req.Decline.Role.String()
			declineReason = req.Decline.Reason
			declinedAt = req.Decline.DeclinedAt
		}

		var vehicleID, plateNumber, driverName, driverContact, assignedBy interface{}
		var assignedAt interface{}
		urgent := false
		if req.Assignment != nil {
			vehicleID = req.Assignment.VehicleID
			plateNumber = req.Assignment.PlateNumber
			driverName = req.Assignment.DriverName
			driverContact = req.Assignment.DriverContact
			urgent = req.Assignment.Urgent
			assignedBy = req.Assignment.AssignedBy
			assignedAt = req.Assignment.AssignedAt
		}

		result, err := ex.ExecContext(txCtx, query,
			req.CurrentStage.String(), req.Status.String(),
			declinedBy, declinedRole, declineReason, declinedAt,
			vehicleID, plateNumber, driverName, driverContact,
			urgent, assignedBy, assignedAt,
			req.UpdatedAt,
			req.ID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("%w: save request: %v", workflow.ErrStorageUnavailable, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: request %s version %d is stale",
				workflow.ErrConcurrentModification, req.ID, expectedVersion)
		}

		if err := r.writeApprovals(txCtx, ex, req); err != nil {
			return err
		}
		return r.appendNotifications(txCtx, ex, req, 0)
	})

	if err != nil {
		return err
	}

	req.Version = expectedVersion + 1
	return nil
}

// List returns requests matching the visibility filter, newest first.
// RequesterID and Stages are combined with OR: together they express
// "requests I submitted or requests waiting on my role". An empty filter
// returns everything.
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*workflow.Request, error) {
	ex := sqlite.ExecutorFrom(ctx, r.db)

	var conditions []string
	var args []interface{}

	var visibility []string
	if filter.RequesterID != "" {
		visibility = append(visibility, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if len(filter.Stages) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Stages)), ", ")
		visibility = append(visibility, fmt.Sprintf("current_stage IN (%s)", placeholders))
		for _, stage := range filter.Stages {
			args = append(args, stage.String())
		}
	}
	if len(visibility) > 0 {
		conditions = append(conditions, "("+strings.Join(visibility, " OR ")+")")
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status.String())
	}

	query := selectRequestColumns + " FROM requests"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("%w: list requests: %v", workflow.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var requests []*workflow.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}

	for _, req := range requests {
		if err := r.loadChildren(ctx, ex, req); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

const selectRequestColumns = `
	SELECT id, requester_id, trip_type, destination, purpose,
		departure_time, passenger_count, current_stage, status,
		declined_by, declined_role, decline_reason, declined_at,
		vehicle_id, plate_number, driver_name, driver_contact,
		urgent, assigned_by, assigned_at,
		version, created_at, updated_at
`

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*workflow.Request, error) {
	var req workflow.Request
	var tripType, currentStage, status string
	var declinedBy, declinedRole, declineReason sql.NullString
	var declinedAt sql.NullTime
	var vehicleID, plateNumber, driverName, driverContact, assignedBy sql.NullString
	var assignedAt sql.NullTime
	var urgent bool

	err := row.Scan(
		&req.ID, &req.RequesterID, &tripType, &req.Destination, &req.Purpose,
		&req.DepartureTime, &req.PassengerCount, &currentStage, &status,
		&declinedBy, &declinedRole, &declineReason, &declinedAt,
		&vehicleID, &plateNumber, &driverName, &driverContact,
		&urgent, &assignedBy, &assignedAt,
		&req.Version, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.TripType = workflow.TripType(tripType)
	req.CurrentStage = workflow.Stage(currentStage)
	req.Status = workflow.Status(status)

	if declinedBy.Valid {
		req.Decline = &workflow.DeclineRecord{
			ActorID:    declinedBy.String,
			Role:       workflow.Role(declinedRole.String),
			Reason:     declineReason.String,
			DeclinedAt: declinedAt.Time,
		}
	}
	if vehicleID.Valid {
		req.Assignment = &workflow.Assignment{
			VehicleID:     vehicleID.String,
			PlateNumber:   plateNumber.String,
			DriverName:    driverName.String,
			DriverContact: driverContact.String,
			Urgent:        urgent,
			AssignedBy:    assignedBy.String,
			AssignedAt:    assignedAt.Time,
		}
	}
	return &req, nil
}

func (r *RequestRepository) loadChildren(ctx context.Context, ex sqlite.Executor, req *workflow.Request) error {
	rows, err := ex.QueryContext(ctx, `
		SELECT stage, status, approved_by, approved_at, comments
		FROM stage_approvals WHERE request_id = ? ORDER BY seq
	`, req.ID)
	if err != nil {
		return fmt.Errorf("%w: load approvals: %v", workflow.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	req.Approvals = nil
	for rows.Next() {
		var a workflow.StageApproval
		var stage, status string
		var approvedBy, comments sql.NullString
		var approvedAt sql.NullTime
		if err := rows.Scan(&stage, &status, &approvedBy, &approvedAt, &comments); err != nil {
			return fmt.Errorf("failed to scan approval: %w", err)
		}
		a.Stage = workflow.Stage(stage)
		a.Status = workflow.ApprovalStatus(status)
		a.ApprovedBy = approvedBy.String
		a.Comments = comments.String
		if approvedAt.Valid {
			t := approvedAt.Time
			a.ApprovedAt = &t
		}
		req.Approvals = append(req.Approvals, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate approvals: %w", err)
	}

	nrows, err := ex.QueryContext(ctx, `
		SELECT recipient, message, type, created_at
		FROM notifications WHERE request_id = ? ORDER BY seq
	`, req.ID)
	if err != nil {
		return fmt.Errorf("%w: load notifications: %v", workflow.ErrStorageUnavailable, err)
	}
	defer nrows.Close()

	req.Notifications = nil
	for nrows.Next() {
		var n workflow.Notification
		if err := nrows.Scan(&n.Recipient, &n.Message, &n.Type, &n.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan notification: %w", err)
		}
		req.Notifications = append(req.Notifications, n)
	}
	return nrows.Err()
}

func (r *RequestRepository) writeApprovals(ctx context.Context, ex sqlite.Executor, req *workflow.Request) error {
	for i, a := range req.Approvals {
		var approvedAt interface{}
		if a.ApprovedAt != nil {
			approvedAt = *a.ApprovedAt
		}
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO stage_approvals (request_id, seq, stage, status, approved_by, approved_at, comments)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (request_id, stage) DO UPDATE SET
				status = excluded.status,
				approved_by = excluded.approved_by,
				approved_at = excluded.approved_at,
				comments = excluded.comments
		`, req.ID, i, a.Stage.String(), string(a.Status), a.ApprovedBy, approvedAt, a.Comments); err != nil {
			return fmt.Errorf("failed to write approval for stage %s: %w", a.Stage, err)
		}
	}
	return nil
}

// appendNotifications inserts notification rows; the (request_id, seq)
// primary key keeps the queue append-only across saves
func (r *RequestRepository) appendNotifications(ctx context.Context, ex sqlite.Executor, req *workflow.Request, from int) error {
	for i := from; i < len(req.Notifications); i++ {
		n := req.Notifications[i]
		if _, err := ex.ExecContext(ctx, `
			INSERT OR IGNORE INTO notifications (request_id, seq, recipient, message, type, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, req.ID, i, n.Recipient, n.Message, n.Type, n.CreatedAt); err != nil {
			return fmt.Errorf("failed to append notification: %w", err)
		}
	}
	return nil
}
