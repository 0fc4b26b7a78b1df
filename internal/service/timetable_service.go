package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opencampus/timetable-api/internal/dto"
	"github.com/opencampus/timetable-api/internal/models"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
	"github.com/opencampus/timetable-api/pkg/export"
)

// Export formats supported by timetable downloads.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// TimetableService serves resource schedule views and exports.
type TimetableService struct {
	repo   bookingRepository
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(repo bookingRepository, cache *CacheService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Timetable returns the schedule view for one resource: all Base rows plus
// Extra rows inside the optional date window.
func (s *TimetableService) Timetable(ctx context.Context, kind models.ResourceKind, id string, window models.DateWindow) (*dto.TimetableResponse, error) {
	if !models.ValidResourceKind(kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource kind")
	}
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource id is required")
	}

	cacheKey := timetableCacheKey(kind, id, window)
	var cached dto.TimetableResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	bookings, err := s.repo.ListByResource(ctx, kind, id, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	resp := &dto.TimetableResponse{Kind: kind, ResourceID: id, Entries: make([]dto.TimetableEntry, 0, len(bookings))}
	for _, b := range bookings {
		resp.Entries = append(resp.Entries, dto.TimetableEntry{
			BookingID:   b.ID,
			CourseID:    b.CourseID,
			ProfessorID: b.ProfessorID,
			BatchID:     b.BatchID,
			ClassroomID: b.ClassroomID,
			Recurrence:  b.Recurrence,
			DayOfWeek:   b.DayOfWeek,
			Date:        b.Date,
			StartTime:   b.StartTime,
			EndTime:     b.EndTime,
		})
	}

	_ = s.cache.Set(ctx, cacheKey, resp, 0)
	return resp, nil
}

// Export renders the timetable as CSV or PDF bytes, returning the content
// type alongside.
func (s *TimetableService) Export(ctx context.Context, kind models.ResourceKind, id string, window models.DateWindow, format string) ([]byte, string, error) {
	timetable, err := s.Timetable(ctx, kind, id, window)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Date", "Start", "End", "Course", "Classroom", "Professor", "Batch", "Type"},
		Widths: map[string]float64{
			"Start": 0.6, "End": 0.6, "Type": 0.6,
			"Course": 1.8, "Professor": 1.6, "Batch": 1.4,
		},
	}
	for _, entry := range timetable.Entries {
		date := ""
		if entry.Date != nil {
			date = entry.Date.String()
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":       string(entry.DayOfWeek),
			"Date":      date,
			"Start":     entry.StartTime.String(),
			"End":       entry.EndTime.String(),
			"Course":    entry.CourseID,
			"Classroom": entry.ClassroomID,
			"Professor": entry.ProfessorID,
			"Batch":     entry.BatchID,
			"Type":      string(entry.Recurrence),
		})
	}

	switch strings.ToLower(format) {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		title := fmt.Sprintf("%s %s timetable", strings.ToLower(string(kind)), id)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func timetableCacheKey(kind models.ResourceKind, id string, window models.DateWindow) string {
	return fmt.Sprintf("timetable:%s:%s:%s:%s", strings.ToLower(string(kind)), id, window.From, window.To)
}
