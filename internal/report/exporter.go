// Package report builds downloadable workbooks from request data.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

const sheetName = "Requests"

// Exporter writes dispatch-request summaries to an Excel workbook
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new report exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// BuildRequestWorkbook creates a workbook with one row per request, showing
// stage progress and assignment details. The caller owns the returned file.
func (e *Exporter) BuildRequestWorkbook(requests []*workflow.Request) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	headers := []string{
		"Request ID", "Requester", "Trip Type", "Destination", "Departure",
		"Status", "Current Stage", "Approvals", "Vehicle", "Driver", "Urgent", "Created",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, req := range requests {
		values := []interface{}{
			req.ID,
			req.RequesterID,
			string(req.TripType),
			req.Destination,
			req.DepartureTime.Format(time.RFC3339),
			req.Status.String(),
			req.CurrentStage.String(),
			approvalSummary(req),
			assignmentVehicle(req),
			assignmentDriver(req),
			req.Assignment != nil && req.Assignment.Urgent,
			req.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	e.logger.Info("Request workbook built", zap.Int("rows", len(requests)))
	return f, nil
}

// approvalSummary renders stage progress like "SUPERVISOR:APPROVED, CORPORATE:PENDING"
func approvalSummary(req *workflow.Request) string {
	summary := ""
	for i, a := range req.Approvals {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s:%s", a.Stage, a.Status)
	}
	return summary
}

func assignmentVehicle(req *workflow.Request) string {
	if req.Assignment == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", req.Assignment.VehicleID, req.Assignment.PlateNumber)
}

func assignmentDriver(req *workflow.Request) string {
	if req.Assignment == nil {
		return ""
	}
	return req.Assignment.DriverName
}
