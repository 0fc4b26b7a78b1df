package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/timetable-api/internal/models"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func extraCandidate() *models.Booking {
	date := models.Date("2024-03-04")
	return &models.Booking{
		CourseID:    "course-1",
		ProfessorID: "prof-1",
		BatchID:     "batch-1",
		ClassroomID: "room-101",
		Recurrence:  models.RecurrenceExtra,
		DayOfWeek:   models.Monday,
		Date:        &date,
		StartTime:   9 * 60,
		EndTime:     10 * 60,
	}
}

func conflictColumns() []string {
	return []string{"id", "course_id", "professor_id", "batch_id", "classroom_id", "recurrence", "day_of_week", "date", "start_time", "end_time", "created_at", "dimension"}
}

func TestBookingRepositoryBookExtraSuccess(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WithArgs("classroom:room-101", "professor:prof-1", "batch:batch-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, course_id, professor_id, batch_id, classroom_id, recurrence, day_of_week, date, start_time, end_time, created_at,").
		WithArgs("room-101", "prof-1", "batch-1", "10:00:00", "09:00:00", "2024-03-04", "MONDAY").
		WillReturnRows(sqlmock.NewRows(conflictColumns()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), "course-1", "prof-1", "batch-1", "room-101", "EXTRA", "MONDAY", "2024-03-04", "09:00:00", "10:00:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	candidate := extraCandidate()
	conflict, err := repo.BookExtra(context.Background(), candidate)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.NotEmpty(t, candidate.ID)
	assert.False(t, candidate.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryBookExtraConflictRollsBack(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows(conflictColumns()).
		AddRow("existing-1", "course-9", "prof-9", "batch-9", "room-101", "EXTRA", "MONDAY", "2024-03-04", "09:30:00", "10:30:00", time.Now(), "CLASSROOM")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, course_id, professor_id, batch_id, classroom_id, recurrence, day_of_week, date, start_time, end_time, created_at,").
		WillReturnRows(rows)
	mock.ExpectRollback()

	conflict, err := repo.BookExtra(context.Background(), extraCandidate())
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ResourceClassroom, conflict.Entity)
	assert.Equal(t, "room-101", conflict.EntityLabel)
	assert.Equal(t, "existing-1", conflict.BookingID)
	assert.Equal(t, models.TimeOfDay(9*60+30), conflict.StartTime)
	assert.Equal(t, models.TimeOfDay(10*60+30), conflict.EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryBookExtraConflictLabelsByDimension(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows(conflictColumns()).
		AddRow("existing-2", "course-9", "prof-1", "batch-9", "room-999", "BASE", "MONDAY", nil, "09:00:00", "11:00:00", time.Now(), "PROFESSOR")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, course_id").WillReturnRows(rows)
	mock.ExpectRollback()

	conflict, err := repo.BookExtra(context.Background(), extraCandidate())
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ResourceProfessor, conflict.Entity)
	assert.Equal(t, "prof-1", conflict.EntityLabel)
	assert.Equal(t, models.RecurrenceBase, conflict.Recurrence)
	assert.Nil(t, conflict.Date)
	assert.Equal(t, "MONDAY", conflict.TimeAxisLabel())
}

func TestBookingRepositoryBookExtraReferentialViolation(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, course_id").WillReturnRows(sqlmock.NewRows(conflictColumns()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&pq.Error{Code: "23503", Message: "foreign key violation"})
	mock.ExpectRollback()

	conflict, err := repo.BookExtra(context.Background(), extraCandidate())
	require.Error(t, err)
	assert.Nil(t, conflict)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrReferential.Code, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryBookExtraQueryFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, course_id").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	conflict, err := repo.BookExtra(context.Background(), extraCandidate())
	require.Error(t, err)
	assert.Nil(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByResource(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	columns := []string{"id", "course_id", "professor_id", "batch_id", "classroom_id", "recurrence", "day_of_week", "date", "start_time", "end_time", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("b-1", "course-1", "prof-1", "batch-1", "room-101", "BASE", "MONDAY", nil, "09:00:00", "10:00:00", time.Now()).
		AddRow("b-2", "course-2", "prof-2", "batch-2", "room-101", "EXTRA", "TUESDAY", "2024-03-05", "10:00:00", "11:00:00", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE classroom_id = $1")).
		WithArgs("room-101").
		WillReturnRows(rows)

	bookings, err := repo.ListByResource(context.Background(), models.ResourceClassroom, "room-101", models.DateWindow{})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, models.RecurrenceBase, bookings[0].Recurrence)
	assert.Nil(t, bookings[0].Date)
	require.NotNil(t, bookings[1].Date)
	assert.Equal(t, models.Date("2024-03-05"), *bookings[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByResourceWindow(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	columns := []string{"id", "course_id", "professor_id", "batch_id", "classroom_id", "recurrence", "day_of_week", "date", "start_time", "end_time", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("recurrence = 'BASE' OR (recurrence = 'EXTRA' AND date >= $2 AND date <= $3)")).
		WithArgs("prof-1", "2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.ListByResource(context.Background(), models.ResourceProfessor, "prof-1", models.DateWindow{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByResourceUnknownKind(t *testing.T) {
	db, _, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	_, err := repo.ListByResource(context.Background(), "ROOM", "x", models.DateWindow{})
	assert.Error(t, err)
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	columns := []string{"id", "course_id", "professor_id", "batch_id", "classroom_id", "recurrence", "day_of_week", "date", "start_time", "end_time", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("b-1", "course-1", "prof-1", "batch-1", "room-101", "EXTRA", "MONDAY", "2024-03-04", "09:00:00", "10:00:00", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("classroom_id = $1")).
		WithArgs("room-101").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("room-101").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{ClassroomID: "room-101"})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	columns := []string{"id", "course_id", "professor_id", "batch_id", "classroom_id", "recurrence", "day_of_week", "date", "start_time", "end_time", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b-1", "course-1", "prof-1", "batch-1", "room-101", "EXTRA", "MONDAY", "2024-03-04", "09:00:00", "10:00:00", time.Now()))

	booking, err := repo.FindByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", booking.ID)
	assert.Equal(t, models.TimeOfDay(9*60), booking.StartTime)
}
