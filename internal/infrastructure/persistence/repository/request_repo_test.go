package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
	"github.com/transitworks/fleetdesk/pkg/database"
)

func setupRequestRepo(t *testing.T) port.RequestRepository {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(database.Schema()))

	txManager := sqlite.NewDB(db.DB, logger)
	return NewRequestRepository(db.DB, txManager, logger)
}

func seedRequest(t *testing.T, repo port.RequestRepository, requesterID string) *workflow.Request {
	t.Helper()
	req, _, err := workflow.Submit(
		workflow.Actor{ID: requesterID, Role: workflow.RoleStaff},
		workflow.SubmitInput{
			RequesterID:    requesterID,
			TripType:       workflow.TripOutOfTown,
			Destination:    "Head office",
			Purpose:        "Quarterly review",
			DepartureTime:  time.Now().Add(48 * time.Hour).UTC(),
			PassengerCount: 2,
		}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	repo := setupRequestRepo(t)
	created := seedRequest(t, repo, "staff-001")

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, workflow.TripOutOfTown, got.TripType)
	assert.Equal(t, workflow.StatusPending, got.Status)
	assert.Equal(t, workflow.StageSupervisor, got.CurrentStage)
	assert.Equal(t, int64(0), got.Version)
	require.Len(t, got.Approvals, 4)
	assert.Equal(t, workflow.StageSupervisor, got.Approvals[0].Stage)
	assert.Len(t, got.Notifications, 1)
	assert.Nil(t, got.Decline)
	assert.Nil(t, got.Assignment)
}

func TestRequestRepository_GetMissing(t *testing.T) {
	repo := setupRequestRepo(t)

	got, err := repo.GetByID(context.Background(), "VR-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestRepository_SaveAdvancesVersion(t *testing.T) {
	repo := setupRequestRepo(t)
	created := seedRequest(t, repo, "staff-001")
	req, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = workflow.Approve(req, workflow.Actor{ID: "sup-01", Role: workflow.RoleSupervisor}, "ok", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), req, req.Version))
	assert.Equal(t, int64(1), req.Version)

	got, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, workflow.StageCorporate, got.CurrentStage)

	record := got.ApprovalFor(workflow.StageSupervisor)
	require.NotNil(t, record)
	assert.Equal(t, workflow.ApprovalApproved, record.Status)
	assert.Equal(t, "sup-01", record.ApprovedBy)
	assert.NotNil(t, record.ApprovedAt)
	assert.Equal(t, "ok", record.Comments)

	// the approval notification was appended alongside the state change
	assert.Len(t, got.Notifications, 2)
}

// Two loads of the same version race on Save: the second write observes a
// moved version and must fail without touching the stored row.
func TestRequestRepository_StaleSaveConflict(t *testing.T) {
	repo := setupRequestRepo(t)
	created := seedRequest(t, repo, "staff-001")
	ctx := context.Background()

	first, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	_, err = workflow.Approve(first, workflow.Actor{ID: "sup-01", Role: workflow.RoleSupervisor}, "", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first, first.Version))

	_, err = workflow.Decline(second, workflow.Actor{ID: "sup-02", Role: workflow.RoleSupervisor}, "no vehicles", time.Now().UTC())
	require.NoError(t, err)
	err = repo.Save(ctx, second, second.Version)
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, got.Status, "losing write must not land")
	assert.Equal(t, workflow.StageCorporate, got.CurrentStage)
	assert.Equal(t, int64(1), got.Version)
	assert.Nil(t, got.Decline)
}

func TestRequestRepository_SavePersistsTerminalRecords(t *testing.T) {
	repo := setupRequestRepo(t)
	created := seedRequest(t, repo, "staff-001")
	ctx := context.Background()

	req, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	_, err = workflow.Decline(req, workflow.Actor{ID: "sup-01", Role: workflow.RoleSupervisor}, "over budget", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, req, req.Version))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDeclined, got.Status)
	require.NotNil(t, got.Decline)
	assert.Equal(t, "over budget", got.Decline.Reason)
	assert.Equal(t, workflow.RoleSupervisor, got.Decline.Role)
}

func TestRequestRepository_ListVisibility(t *testing.T) {
	repo := setupRequestRepo(t)
	ctx := context.Background()

	mine := seedRequest(t, repo, "staff-001")
	other := seedRequest(t, repo, "staff-002")

	// move the second request past the supervisor stage
	req, err := repo.GetByID(ctx, other.ID)
	require.NoError(t, err)
	_, err = workflow.Approve(req, workflow.Actor{ID: "sup-01", Role: workflow.RoleSupervisor}, "", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, req, req.Version))

	// staff-001 sees only their own submission
	got, err := repo.List(ctx, port.RequestFilter{
		RequesterID: "staff-001",
		Limit:       20,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	// a supervisor sees requests waiting at their stage plus their own
	got, err = repo.List(ctx, port.RequestFilter{
		RequesterID: "sup-01",
		Stages:      []workflow.Stage{workflow.StageSupervisor},
		Limit:       20,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	// unconstrained filter returns everything, children loaded
	got, err = repo.List(ctx, port.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.NotEmpty(t, r.Approvals)
	}

	// status filter composes with visibility
	got, err = repo.List(ctx, port.RequestFilter{Status: workflow.StatusPending, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
