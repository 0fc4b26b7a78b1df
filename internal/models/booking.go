package models

import (
	"fmt"
	"time"
)

// Recurrence distinguishes weekly recurring bookings from one-off ones.
type Recurrence string

const (
	// RecurrenceBase recurs weekly and is keyed by day-of-week. Base rows are
	// seeded out-of-band and are read-only for the booking path.
	RecurrenceBase Recurrence = "BASE"
	// RecurrenceExtra is a one-off booking keyed by a calendar date.
	RecurrenceExtra Recurrence = "EXTRA"
)

// ResourceKind names one of the three conflict dimensions.
type ResourceKind string

const (
	ResourceClassroom ResourceKind = "CLASSROOM"
	ResourceProfessor ResourceKind = "PROFESSOR"
	ResourceBatch     ResourceKind = "BATCH"
)

// ValidResourceKind reports whether the kind is a known conflict dimension.
func ValidResourceKind(k ResourceKind) bool {
	switch k {
	case ResourceClassroom, ResourceProfessor, ResourceBatch:
		return true
	}
	return false
}

// Booking is a time-boxed assignment of a classroom, professor and batch to a
// course. Rows are immutable after creation.
type Booking struct {
	ID          string     `db:"id" json:"id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	ProfessorID string     `db:"professor_id" json:"professor_id"`
	BatchID     string     `db:"batch_id" json:"batch_id"`
	ClassroomID string     `db:"classroom_id" json:"classroom_id"`
	Recurrence  Recurrence `db:"recurrence" json:"recurrence"`
	DayOfWeek   DayOfWeek  `db:"day_of_week" json:"day_of_week"`
	Date        *Date      `db:"date" json:"date,omitempty"`
	StartTime   TimeOfDay  `db:"start_time" json:"start_time"`
	EndTime     TimeOfDay  `db:"end_time" json:"end_time"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Interval returns the booking's half-open time range.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	ClassroomID string
	ProfessorID string
	BatchID     string
	CourseID    string
	Recurrence  string
	DayOfWeek   string
	DateFrom    string
	DateTo      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// DateWindow bounds Extra bookings in timetable reads. Zero values leave the
// corresponding side unbounded.
type DateWindow struct {
	From Date
	To   Date
}

// BookingConflict describes an existing booking that blocks a candidate and
// which resource dimension caused the clash.
type BookingConflict struct {
	BookingID   string       `json:"booking_id"`
	Entity      ResourceKind `json:"entity"`
	EntityLabel string       `json:"entity_label"`
	Recurrence  Recurrence   `json:"recurrence"`
	DayOfWeek   DayOfWeek    `json:"day_of_week"`
	Date        *Date        `json:"date,omitempty"`
	StartTime   TimeOfDay    `json:"start_time"`
	EndTime     TimeOfDay    `json:"end_time"`
}

// TimeAxisLabel names the axis the clash occurred on: the calendar date for
// one-off bookings, the weekday for recurring ones.
func (c BookingConflict) TimeAxisLabel() string {
	if c.Recurrence == RecurrenceExtra && c.Date != nil {
		return c.Date.String()
	}
	return string(c.DayOfWeek)
}

// BookingConflictError is returned when a candidate collides with an existing
// booking.
type BookingConflictError struct {
	Message  string          `json:"message"`
	Conflict BookingConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// NewBookingConflictError builds the user-facing clash message from the
// descriptor.
func NewBookingConflictError(conflict BookingConflict) *BookingConflictError {
	var noun string
	switch conflict.Entity {
	case ResourceClassroom:
		noun = "classroom"
	case ResourceProfessor:
		noun = "professor"
	default:
		noun = "batch"
	}
	msg := fmt.Sprintf("%s %s is already booked on %s from %s to %s",
		noun, conflict.EntityLabel, conflict.TimeAxisLabel(), conflict.StartTime, conflict.EndTime)
	return &BookingConflictError{Message: msg, Conflict: conflict}
}
