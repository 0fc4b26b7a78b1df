package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingConflictTimeAxisLabel(t *testing.T) {
	date := Date("2024-03-04")
	extra := BookingConflict{Recurrence: RecurrenceExtra, Date: &date, DayOfWeek: Monday}
	assert.Equal(t, "2024-03-04", extra.TimeAxisLabel())

	base := BookingConflict{Recurrence: RecurrenceBase, DayOfWeek: Wednesday}
	assert.Equal(t, "WEDNESDAY", base.TimeAxisLabel())
}

func TestNewBookingConflictError(t *testing.T) {
	date := Date("2024-03-04")
	err := NewBookingConflictError(BookingConflict{
		BookingID:   "b-1",
		Entity:      ResourceClassroom,
		EntityLabel: "101",
		Recurrence:  RecurrenceExtra,
		Date:        &date,
		StartTime:   9 * 60,
		EndTime:     10 * 60,
	})
	assert.Equal(t, "classroom 101 is already booked on 2024-03-04 from 09:00 to 10:00", err.Error())
	assert.Equal(t, ResourceClassroom, err.Conflict.Entity)

	profErr := NewBookingConflictError(BookingConflict{
		Entity:      ResourceProfessor,
		EntityLabel: "P3",
		Recurrence:  RecurrenceBase,
		DayOfWeek:   Wednesday,
		StartTime:   11 * 60,
		EndTime:     12 * 60,
	})
	assert.Equal(t, "professor P3 is already booked on WEDNESDAY from 11:00 to 12:00", profErr.Error())
}

func TestBookingInterval(t *testing.T) {
	b := Booking{StartTime: 9 * 60, EndTime: 10 * 60}
	assert.Equal(t, Interval{Start: 9 * 60, End: 10 * 60}, b.Interval())
}
