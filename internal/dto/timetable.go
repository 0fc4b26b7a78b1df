package dto

import "github.com/opencampus/timetable-api/internal/models"

// TimetableEntry is one row of a resource's timetable view.
type TimetableEntry struct {
	BookingID   string            `json:"booking_id"`
	CourseID    string            `json:"course_id"`
	ProfessorID string            `json:"professor_id"`
	BatchID     string            `json:"batch_id"`
	ClassroomID string            `json:"classroom_id"`
	Recurrence  models.Recurrence `json:"recurrence"`
	DayOfWeek   models.DayOfWeek  `json:"day_of_week"`
	Date        *models.Date      `json:"date,omitempty"`
	StartTime   models.TimeOfDay  `json:"start_time"`
	EndTime     models.TimeOfDay  `json:"end_time"`
}

// TimetableResponse is the schedule view for a single resource.
type TimetableResponse struct {
	Kind       models.ResourceKind `json:"kind"`
	ResourceID string              `json:"resource_id"`
	Entries    []TimetableEntry    `json:"entries"`
}
