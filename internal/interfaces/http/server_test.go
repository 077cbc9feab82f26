package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/service"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
	"github.com/transitworks/fleetdesk/internal/infrastructure/notify"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/repository"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
	"github.com/transitworks/fleetdesk/internal/report"
	"github.com/transitworks/fleetdesk/pkg/database"
)

type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

// newTestServer wires the full stack against a throwaway database and seeds
// one identity per role
func newTestServer(t *testing.T) *Server {
	t.Helper()

	zl := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, zl).Run(database.Schema()))

	txManager := sqlite.NewDB(db.DB, zl)
	requestRepo := repository.NewRequestRepository(db.DB, txManager, zl)
	identityRepo := repository.NewIdentityRepository(db.DB, zl)
	facilityRepo := repository.NewFacilityRepository(db.DB, zl)
	auditRepo := repository.NewAuditLogRepository(db.DB, zl)

	logger := testLogger{}
	auditService := service.NewAuditService(auditRepo, logger)
	workflowService := service.NewWorkflowService(requestRepo, identityRepo, auditService, notify.NewLogNotifier(zl), logger, 3)
	identityService := service.NewIdentityService(identityRepo, auditService, logger)
	facilityService := service.NewFacilityService(facilityRepo, identityRepo, auditService, logger)
	reportService := service.NewReportService(requestRepo, identityRepo, report.NewExporter(zl), logger)

	ctx := context.Background()
	require.NoError(t, identityService.EnsureSeed(ctx, "admin-01", "Fleet Admin"))
	seed := []*entity.Identity{
		{ID: "staff-001", Name: "A. Tetteh", Role: workflow.RoleStaff},
		{ID: "sup-01", Name: "K. Boateng", Role: workflow.RoleSupervisor},
		{ID: "vo-01", Name: "E. Quartey", Role: workflow.RoleVehicleOfficer},
	}
	for _, identity := range seed {
		require.NoError(t, identityService.Create(ctx, "admin-01", identity))
	}

	return NewServer(DefaultServerConfig(), workflowService, facilityService, identityService, auditService, reportService, logger)
}

func do(t *testing.T, srv *Server, method, path, actorID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set(actorHeader, actorID)
	}

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (map[string]interface{}, string) {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   string                 `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data, resp.Error
}

func submitBody() map[string]interface{} {
	return map[string]interface{}{
		"trip_type":       "within_town",
		"destination":     "Regional depot",
		"purpose":         "Equipment delivery",
		"departure_time":  time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"passenger_count": 3,
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_RequestLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/requests", "staff-001", submitBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data, _ := decodeResponse(t, w)
	requestID, _ := data["id"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, "PENDING", data["status"])

	approve := func(actorID string) *httptest.ResponseRecorder {
		return do(t, srv, http.MethodPost,
			fmt.Sprintf("/api/requests/%s/approve", requestID), actorID,
			map[string]interface{}{"comments": "ok"})
	}

	w = approve("sup-01")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the supervisor stage is spent
	w = approve("sup-01")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = approve("vo-01")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, _ = decodeResponse(t, w)
	assert.Equal(t, "APPROVED", data["status"])

	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/assign", requestID), "vo-01",
		map[string]interface{}{
			"vehicle_id":   "BUS-7",
			"plate_number": "GA-4821",
			"driver_name":  "K. Mensah",
			"urgent":       true,
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, _ = decodeResponse(t, w)
	assert.Equal(t, "DISPATCHED", data["status"])

	// terminal state rejects further transitions
	w = approve("vo-01")
	assert.Equal(t, http.StatusConflict, w.Code)

	// every transition left an audit entry
	w = do(t, srv, http.MethodGet, fmt.Sprintf("/api/requests/%s/audit", requestID), "staff-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trail struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trail))
	assert.Len(t, trail.Data, 4)
}

func TestServer_DeclineFlow(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/requests", "staff-001", submitBody())
	require.Equal(t, http.StatusCreated, w.Code)
	data, _ := decodeResponse(t, w)
	requestID := data["id"].(string)

	// reason is mandatory
	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/decline", requestID), "sup-01",
		map[string]interface{}{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/decline", requestID), "sup-01",
		map[string]interface{}{"reason": "no vehicles"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, _ = decodeResponse(t, w)
	assert.Equal(t, "DECLINED", data["status"])
}

func TestServer_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	// missing fields fail binding
	w := do(t, srv, http.MethodPost, "/api/requests", "staff-001",
		map[string]interface{}{"trip_type": "within_town"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/requests/VR-missing/approve", "sup-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// unknown actor
	w = do(t, srv, http.MethodPost, "/api/requests", "ghost-99", submitBody())
	assert.Equal(t, http.StatusForbidden, w.Code)

	// staff cannot approve
	w = do(t, srv, http.MethodPost, "/api/requests", "staff-001", submitBody())
	require.Equal(t, http.StatusCreated, w.Code)
	data, _ := decodeResponse(t, w)
	requestID := data["id"].(string)

	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/approve", requestID), "staff-001", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_Facilities(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]interface{}{
		"name":     "Central Depot",
		"category": "DEPOT",
		"town":     "Tamale",
		"capacity": 24,
	}

	// only facility managers may create
	w := do(t, srv, http.MethodPost, "/api/facilities", "staff-001", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, srv, http.MethodPost, "/api/facilities", "admin-01", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data, _ := decodeResponse(t, w)
	id := int64(data["id"].(float64))

	w = do(t, srv, http.MethodGet, fmt.Sprintf("/api/facilities/%d", id), "staff-001", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/facilities/%d", id), "admin-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, fmt.Sprintf("/api/facilities/%d", id), "staff-001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Delegation(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/requests", "staff-001", submitBody())
	require.Equal(t, http.StatusCreated, w.Code)
	data, _ := decodeResponse(t, w)
	requestID := data["id"].(string)

	// grant staff-001 a supervisor window covering now
	w = do(t, srv, http.MethodPut, "/api/identities/staff-001/delegation", "admin-01",
		map[string]interface{}{
			"role":  "SUPERVISOR",
			"start": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
			"end":   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/approve", requestID), "staff-001", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// once cleared the assigned role applies again
	w = do(t, srv, http.MethodDelete, "/api/identities/staff-001/delegation", "admin-01", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost,
		fmt.Sprintf("/api/requests/%s/approve", requestID), "staff-001", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_ReportExport(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/reports/requests", "staff-001", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, srv, http.MethodGet, "/api/reports/requests", "admin-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, w.Body.Len())
}
