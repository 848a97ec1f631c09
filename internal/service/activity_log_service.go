package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/export"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

// Export formats supported by ActivityLogService.Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type activityLogRepository interface {
	ListActivityLogs(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ActivityLogService reads the audit trail.
type ActivityLogService struct {
	repo   activityLogRepository
	csv    renderer
	pdf    renderer
	logger *zap.Logger
	now    func() time.Time
}

// NewActivityLogService constructs an ActivityLogService. Nil renderers fall
// back to the default exporters.
func NewActivityLogService(repo activityLogRepository, csv, pdf renderer, logger *zap.Logger) *ActivityLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ActivityLogService{repo: repo, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// List returns entries newest first.
func (s *ActivityLogService) List(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error) {
	if filter.Limit < 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "limit must not be negative",
			[]appErrors.FieldError{{Field: "limit", Reason: "gte", Param: "0"}})
	}
	logs, err := s.repo.ListActivityLogs(ctx, filter)
	if err != nil {
		return nil, storageError(err, "activity log", "list activity logs")
	}
	return logs, nil
}

var activityExportColumns = []export.Column{
	{Header: "ID", Width: 1},
	{Header: "Timestamp", Width: 3},
	{Header: "Action", Width: 3},
	{Header: "User ID", Width: 1},
	{Header: "Details", Width: 6},
}

// Export renders the filtered entries as CSV or PDF.
func (s *ActivityLogService) Export(ctx context.Context, filter models.ActivityLogFilter, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "unsupported export format",
			[]appErrors.FieldError{{Field: "format", Reason: "oneof", Param: "csv pdf"}})
	}

	logs, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	dataset := export.Dataset{
		Title:   "Activity Log " + now.Format("2006-01-02"),
		Columns: activityExportColumns,
		Rows:    make([][]string, 0, len(logs)),
	}
	for _, entry := range logs {
		userID := ""
		if entry.UserID != nil {
			userID = strconv.FormatInt(*entry.UserID, 10)
		}
		dataset.Rows = append(dataset.Rows, []string{
			strconv.FormatInt(entry.ID, 10),
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.Action,
			userID,
			entry.Details.String(),
		})
	}

	result := &ExportResult{Filename: fmt.Sprintf("activity_logs_%s.%s", now.Format("20060102_150405"), format)}
	switch format {
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Content, err = s.pdf.Render(dataset)
	default:
		result.ContentType = "text/csv"
		result.Content, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render activity log export")
	}
	return result, nil
}
