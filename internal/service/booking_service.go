package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/timetable-api/internal/models"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByResource(ctx context.Context, kind models.ResourceKind, id string, window models.DateWindow) ([]models.Booking, error)
	BookExtra(ctx context.Context, booking *models.Booking) (*models.BookingConflict, error)
}

// Booking attempt outcomes reported to metrics.
const (
	outcomeCommitted   = "committed"
	outcomeConflict    = "conflict"
	outcomeValidation  = "validation_error"
	outcomeReferential = "referential_error"
	outcomePersistence = "persistence_error"
)

// BookExtraClassRequest describes the payload for booking a one-off class.
type BookExtraClassRequest struct {
	CourseID    string `json:"course_id" validate:"required"`
	ProfessorID string `json:"professor_id" validate:"required"`
	BatchID     string `json:"batch_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	Date        string `json:"date" validate:"required,dateonly"`
	StartTime   string `json:"start_time" validate:"required,hhmm"`
	EndTime     string `json:"end_time" validate:"required,hhmm"`
}

// registerBookingValidators adds the wire-format checks for "HH:MM" times and
// "YYYY-MM-DD" dates.
func registerBookingValidators(v *validator.Validate) {
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
}

// BookExtraClassResult carries the committed booking id.
type BookExtraClassResult struct {
	ScheduleID string `json:"schedule_id"`
}

// BookingService coordinates booking attempts and booking reads.
type BookingService struct {
	repo      bookingRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	txTimeout time.Duration
	now       func() time.Time
}

// NewBookingService instantiates BookingService.
func NewBookingService(repo bookingRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, txTimeout time.Duration) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	registerBookingValidators(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &BookingService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		txTimeout: txTimeout,
		now:       time.Now,
	}
}

// BookExtraClass validates the candidate, runs the transactional conflict
// check and admits the booking when the slot is clear. A clash is reported as
// a conflict error carrying the descriptor; nothing is persisted in that case.
func (s *BookingService) BookExtraClass(ctx context.Context, req BookExtraClassRequest) (*BookExtraClassResult, error) {
	candidate, err := s.buildCandidate(req)
	if err != nil {
		s.metrics.ObserveBookingOutcome(outcomeValidation)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	conflict, err := s.repo.BookExtra(ctx, candidate)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrReferential.Code {
			s.metrics.ObserveBookingOutcome(outcomeReferential)
			return nil, appErr
		}
		s.metrics.ObserveBookingOutcome(outcomePersistence)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book extra class")
	}
	if conflict != nil {
		s.metrics.ObserveBookingOutcome(outcomeConflict)
		domainErr := models.NewBookingConflictError(*conflict)
		return nil, appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domainErr.Message)
	}

	s.metrics.ObserveBookingOutcome(outcomeCommitted)
	s.invalidateTimetables(ctx, candidate)
	s.logger.Info("extra class booked",
		zap.String("booking_id", candidate.ID),
		zap.String("classroom_id", candidate.ClassroomID),
		zap.String("professor_id", candidate.ProfessorID),
		zap.String("batch_id", candidate.BatchID),
		zap.String("date", string(*candidate.Date)),
	)
	return &BookExtraClassResult{ScheduleID: candidate.ID}, nil
}

// buildCandidate checks structural validity and derives the weekday before
// any transaction is opened.
func (s *BookingService) buildCandidate(req BookExtraClassRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	start, err := models.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if date.Before(models.DateOf(s.now())) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be today or later")
	}

	return &models.Booking{
		CourseID:    req.CourseID,
		ProfessorID: req.ProfessorID,
		BatchID:     req.BatchID,
		ClassroomID: req.ClassroomID,
		Recurrence:  models.RecurrenceExtra,
		DayOfWeek:   date.Weekday(),
		Date:        &date,
		StartTime:   start,
		EndTime:     end,
	}, nil
}

func (s *BookingService) invalidateTimetables(ctx context.Context, booking *models.Booking) {
	if !s.cache.Enabled() {
		return
	}
	patterns := []string{
		fmt.Sprintf("timetable:classroom:%s:*", booking.ClassroomID),
		fmt.Sprintf("timetable:professor:%s:*", booking.ProfessorID),
		fmt.Sprintf("timetable:batch:%s:*", booking.BatchID),
	}
	for _, pattern := range patterns {
		_ = s.cache.Invalidate(ctx, pattern)
	}
}

// List returns bookings with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// Get loads a single booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}
