package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/transitworks/fleetdesk/internal/application/service"
	"github.com/transitworks/fleetdesk/internal/domain/entity"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// actorHeader conveys the acting identity. Authentication is handled
// upstream; the service trusts this header.
const actorHeader = "X-Actor-ID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService service.WorkflowService
	facilityService service.FacilityService
	identityService service.IdentityService
	auditService    service.AuditService
	reportService   service.ReportService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflowService service.WorkflowService,
	facilityService service.FacilityService,
	identityService service.IdentityService,
	auditService service.AuditService,
	reportService service.ReportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		facilityService: facilityService,
		identityService: identityService,
		auditService:    auditService,
		reportService:   reportService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitRequestBody is the payload for creating a request
type SubmitRequestBody struct {
	TripType       string    `json:"trip_type" binding:"required"`
	Destination    string    `json:"destination" binding:"required"`
	Purpose        string    `json:"purpose" binding:"required"`
	DepartureTime  time.Time `json:"departure_time" binding:"required"`
	PassengerCount int       `json:"passenger_count" binding:"required"`
}

// ApproveBody carries optional approval comments
type ApproveBody struct {
	Comments string `json:"comments"`
}

// DeclineBody carries the mandatory decline reason
type DeclineBody struct {
	Reason string `json:"reason"`
}

// AssignBody is the payload for dispatching a request
type AssignBody struct {
	VehicleID     string `json:"vehicle_id" binding:"required"`
	PlateNumber   string `json:"plate_number" binding:"required"`
	DriverName    string `json:"driver_name" binding:"required"`
	DriverContact string `json:"driver_contact"`
	Urgent        bool   `json:"urgent"`
}

// FacilityBody is the payload for creating or updating a facility
type FacilityBody struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
	Town     string `json:"town" binding:"required"`
	Capacity int    `json:"capacity"`
	Notes    string `json:"notes"`
}

// IdentityBody is the payload for registering an identity
type IdentityBody struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
}

// DelegationBody is the payload for granting a temporary role
type DelegationBody struct {
	Role  string    `json:"role" binding:"required"`
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflowService.Submit(c.Request.Context(), h.actor(c), service.SubmitCommand{
		TripType:       workflow.TripType(body.TripType),
		Destination:    body.Destination,
		Purpose:        body.Purpose,
		DepartureTime:  body.DepartureTime,
		PassengerCount: body.PassengerCount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	limit, offset := pagination(c)
	requests, err := h.workflowService.List(c.Request.Context(), h.actor(c), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.workflowService.Get(c.Request.Context(), h.actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var body ApproveBody
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflowService.Approve(c.Request.Context(), h.actor(c), c.Param("id"), body.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// DeclineRequest handles POST /api/requests/:id/decline
func (h *Handlers) DeclineRequest(c *gin.Context) {
	var body DeclineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflowService.Decline(c.Request.Context(), h.actor(c), c.Param("id"), body.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// AssignRequest handles POST /api/requests/:id/assign
func (h *Handlers) AssignRequest(c *gin.Context) {
	var body AssignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflowService.Assign(c.Request.Context(), h.actor(c), c.Param("id"), service.AssignCommand{
		VehicleID:     body.VehicleID,
		PlateNumber:   body.PlateNumber,
		DriverName:    body.DriverName,
		DriverContact: body.DriverContact,
		Urgent:        body.Urgent,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// RequestAuditTrail handles GET /api/requests/:id/audit
func (h *Handlers) RequestAuditTrail(c *gin.Context) {
	entries, err := h.auditService.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// ListAuditLog handles GET /api/audit
func (h *Handlers) ListAuditLog(c *gin.Context) {
	limit, offset := pagination(c)
	entries, err := h.auditService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// CreateFacility handles POST /api/facilities
func (h *Handlers) CreateFacility(c *gin.Context) {
	var body FacilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	facility := &entity.Facility{
		Name:     body.Name,
		Category: body.Category,
		Town:     body.Town,
		Capacity: body.Capacity,
		Notes:    body.Notes,
	}
	if err := h.facilityService.Create(c.Request.Context(), h.actor(c), facility); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: facility})
}

// ListFacilities handles GET /api/facilities
func (h *Handlers) ListFacilities(c *gin.Context) {
	limit, offset := pagination(c)
	facilities, err := h.facilityService.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: facilities})
}

// GetFacility handles GET /api/facilities/:id
func (h *Handlers) GetFacility(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	facility, err := h.facilityService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: facility})
}

// UpdateFacility handles PUT /api/facilities/:id
func (h *Handlers) UpdateFacility(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	var body FacilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	facility := &entity.Facility{
		ID:       id,
		Name:     body.Name,
		Category: body.Category,
		Town:     body.Town,
		Capacity: body.Capacity,
		Notes:    body.Notes,
	}
	if err := h.facilityService.Update(c.Request.Context(), h.actor(c), facility); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: facility})
}

// DeleteFacility handles DELETE /api/facilities/:id
func (h *Handlers) DeleteFacility(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.facilityService.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateIdentity handles POST /api/identities
func (h *Handlers) CreateIdentity(c *gin.Context) {
	var body IdentityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	identity := &entity.Identity{
		ID:   body.ID,
		Name: body.Name,
		Role: workflow.Role(body.Role),
	}
	if err := h.identityService.Create(c.Request.Context(), h.actor(c), identity); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: identity})
}

// GetIdentity handles GET /api/identities/:id
func (h *Handlers) GetIdentity(c *gin.Context) {
	identity, err := h.identityService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: identity})
}

// SetDelegation handles PUT /api/identities/:id/delegation
func (h *Handlers) SetDelegation(c *gin.Context) {
	var body DelegationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	err := h.identityService.SetDelegation(c.Request.Context(), h.actor(c), c.Param("id"), entity.Delegation{
		Role:  workflow.Role(body.Role),
		Start: body.Start,
		End:   body.End,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ClearDelegation handles DELETE /api/identities/:id/delegation
func (h *Handlers) ClearDelegation(c *gin.Context) {
	if err := h.identityService.ClearDelegation(c.Request.Context(), h.actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportRequests handles GET /api/reports/requests
func (h *Handlers) ExportRequests(c *gin.Context) {
	f, err := h.reportService.ExportRequests(c.Request.Context(), h.actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="requests.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream report", "error", err)
	}
}

func (h *Handlers) actor(c *gin.Context) string {
	return c.GetHeader(actorHeader)
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request payload", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request payload"})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{Success: false, Error: err.Error()})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
