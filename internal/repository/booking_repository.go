package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/opencampus/timetable-api/internal/models"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
)

const bookingColumns = "id, course_id, professor_id, batch_id, classroom_id, recurrence, day_of_week, date, start_time, end_time, created_at"

// BookingRepository provides persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Recurrence != "" {
		conditions = append(conditions, fmt.Sprintf("recurrence = $%d", len(args)+1))
		args = append(args, filter.Recurrence)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"date":        true,
		"start_time":  true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, sortBy, order, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

var resourceColumns = map[models.ResourceKind]string{
	models.ResourceClassroom: "classroom_id",
	models.ResourceProfessor: "professor_id",
	models.ResourceBatch:     "batch_id",
}

// ListByResource returns bookings for one resource dimension, Base rows plus
// Extra rows within the optional date window, ordered by day and start time.
func (r *BookingRepository) ListByResource(ctx context.Context, kind models.ResourceKind, id string, window models.DateWindow) ([]models.Booking, error) {
	column, ok := resourceColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}

	conditions := []string{fmt.Sprintf("%s = $1", column)}
	args := []interface{}{id}

	extra := "recurrence = 'BASE' OR (recurrence = 'EXTRA'"
	if window.From != "" {
		extra += fmt.Sprintf(" AND date >= $%d", len(args)+1)
		args = append(args, window.From)
	}
	if window.To != "" {
		extra += fmt.Sprintf(" AND date <= $%d", len(args)+1)
		args = append(args, window.To)
	}
	extra += ")"
	conditions = append(conditions, "("+extra+")")

	query := fmt.Sprintf("SELECT %s FROM bookings WHERE %s ORDER BY day_of_week ASC, start_time ASC", bookingColumns, strings.Join(conditions, " AND "))
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings by %s: %w", strings.ToLower(string(kind)), err)
	}
	return bookings, nil
}

// conflictRow is a booking joined with the dimension that matched the
// candidate, in classroom > professor > batch priority.
type conflictRow struct {
	models.Booking
	Dimension models.ResourceKind `db:"dimension"`
}

// The locking read takes row locks on every booking that could clash with the
// candidate; the locks are held until the enclosing transaction ends, which
// serializes concurrent attempts for contested resources. LIMIT 1 mirrors a
// first-match policy: whichever conflicting row the store returns is reported.
const findConflictingQuery = `SELECT ` + bookingColumns + `,
CASE WHEN classroom_id = $1 THEN 'CLASSROOM' WHEN professor_id = $2 THEN 'PROFESSOR' ELSE 'BATCH' END AS dimension
FROM bookings
WHERE (classroom_id = $1 OR professor_id = $2 OR batch_id = $3)
AND start_time < $4 AND end_time > $5
AND ((recurrence = 'EXTRA' AND date = $6) OR (recurrence = 'BASE' AND day_of_week = $7))
LIMIT 1
FOR UPDATE`

func findConflicting(ctx context.Context, tx *sqlx.Tx, candidate *models.Booking) (*conflictRow, error) {
	var row conflictRow
	err := tx.GetContext(ctx, &row, findConflictingQuery,
		candidate.ClassroomID,
		candidate.ProfessorID,
		candidate.BatchID,
		candidate.EndTime,
		candidate.StartTime,
		candidate.Date,
		candidate.DayOfWeek,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conflicting bookings: %w", err)
	}
	return &row, nil
}

// Row locks alone cannot serialize two attempts that both see an empty
// conflict set, so each attempt first takes transaction-scoped advisory locks
// on its three resource ids. Locks are acquired in a fixed field order to
// keep lock ordering consistent across transactions.
const advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtext($1)), pg_advisory_xact_lock(hashtext($2)), pg_advisory_xact_lock(hashtext($3))`

func lockResources(ctx context.Context, tx *sqlx.Tx, candidate *models.Booking) error {
	if _, err := tx.ExecContext(ctx, advisoryLockQuery,
		"classroom:"+candidate.ClassroomID,
		"professor:"+candidate.ProfessorID,
		"batch:"+candidate.BatchID,
	); err != nil {
		return fmt.Errorf("lock booking resources: %w", err)
	}
	return nil
}

const insertBookingQuery = `INSERT INTO bookings (id, course_id, professor_id, batch_id, classroom_id, recurrence, day_of_week, date, start_time, end_time, created_at)
VALUES (:id, :course_id, :professor_id, :batch_id, :classroom_id, :recurrence, :day_of_week, :date, :start_time, :end_time, :created_at)`

// BookExtra runs the whole booking attempt as one transaction: the locking
// conflict read followed by the insert. On a clash the transaction is rolled
// back and the conflict descriptor is returned with a nil error; nothing is
// written. On success the stored booking carries its assigned id.
func (r *BookingRepository) BookExtra(ctx context.Context, booking *models.Booking) (conflict *models.BookingConflict, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockResources(ctx, tx, booking); err != nil {
		return nil, err
	}

	row, err := findConflicting(ctx, tx, booking)
	if err != nil {
		return nil, err
	}
	if row != nil {
		_ = tx.Rollback()
		return describeConflict(row), nil
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	if _, err = tx.NamedExecContext(ctx, insertBookingQuery, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			err = appErrors.Wrap(err, appErrors.ErrReferential.Code, appErrors.ErrReferential.Status, "course, batch or classroom does not exist")
			return nil, err
		}
		err = fmt.Errorf("insert booking: %w", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit booking: %w", err)
		return nil, err
	}
	return nil, nil
}

func describeConflict(row *conflictRow) *models.BookingConflict {
	conflict := &models.BookingConflict{
		BookingID:  row.ID,
		Entity:     row.Dimension,
		Recurrence: row.Recurrence,
		DayOfWeek:  row.DayOfWeek,
		Date:       row.Date,
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
	}
	switch row.Dimension {
	case models.ResourceClassroom:
		conflict.EntityLabel = row.ClassroomID
	case models.ResourceProfessor:
		conflict.EntityLabel = row.ProfessorID
	default:
		conflict.EntityLabel = row.BatchID
	}
	return conflict
}
