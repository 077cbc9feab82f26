package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
	"github.com/transitworks/fleetdesk/internal/report"
)

// ReportService exports request summaries for roles holding the
// export_reports permission
type ReportService interface {
	ExportRequests(ctx context.Context, actorID string) (*excelize.File, error)
}

type reportServiceImpl struct {
	requests   port.RequestRepository
	identities port.IdentityRepository
	exporter   *report.Exporter
	logger     Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	requests port.RequestRepository,
	identities port.IdentityRepository,
	exporter *report.Exporter,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		requests:   requests,
		identities: identities,
		exporter:   exporter,
		logger:     logger,
	}
}

// ExportRequests builds a workbook covering every request
func (s *reportServiceImpl) ExportRequests(ctx context.Context, actorID string) (*excelize.File, error) {
	identity, err := s.identities.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: unknown actor %q", workflow.ErrAuthorization, actorID)
	}
	if !workflow.HasPermission(identity.EffectiveRole(time.Now()), workflow.PermExportReports) {
		return nil, fmt.Errorf("%w: role %s cannot export reports", workflow.ErrAuthorization, identity.Role)
	}

	requests, err := s.requests.List(ctx, port.RequestFilter{})
	if err != nil {
		s.logger.Error("Failed to load requests for export", "error", err)
		return nil, err
	}

	f, err := s.exporter.BuildRequestWorkbook(requests)
	if err != nil {
		s.logger.Error("Failed to build request workbook", "error", err)
		return nil, err
	}

	s.logger.Info("Request report exported", "actor_id", actorID, "requests", len(requests))
	return f, nil
}
