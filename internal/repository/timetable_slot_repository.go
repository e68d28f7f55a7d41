package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
)

// TimetableSlotRepository stores the slot grid. Methods taking an exec run on
// that transaction when non-nil and on the pool otherwise.
type TimetableSlotRepository struct {
	db *sqlx.DB
}

// NewTimetableSlotRepository builds the repository.
func NewTimetableSlotRepository(db *sqlx.DB) *TimetableSlotRepository {
	return &TimetableSlotRepository{db: db}
}

const slotColumns = `id, course_id, semester, day_of_week, start_time, end_time, subject_id, faculty_id, room_id, created_at`

func (r *TimetableSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *TimetableSlotRepository) getOne(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) (*models.TimetableSlot, error) {
	var slot models.TimetableSlot
	if err := sqlx.GetContext(ctx, r.exec(exec), &slot, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

// LockKeys takes transaction-scoped advisory locks; exec must be a transaction.
func (r *TimetableSlotRepository) LockKeys(ctx context.Context, exec sqlx.ExtContext, keys ...string) error {
	return database.AdvisoryXactLock(ctx, r.exec(exec), keys...)
}

// FindByCell returns the occupant of a cell, or nil.
func (r *TimetableSlotRepository) FindByCell(ctx context.Context, exec sqlx.ExtContext, cell models.SlotCell) (*models.TimetableSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM timetable_slots WHERE course_id = $1 AND semester = $2 AND day_of_week = $3 AND start_time = $4`
	slot, err := r.getOne(ctx, exec, query, cell.CourseID, cell.Semester, cell.DayOfWeek, cell.StartTime)
	if err != nil {
		return nil, fmt.Errorf("find slot by cell: %w", err)
	}
	return slot, nil
}

// FindByFaculty returns another slot booking the faculty at day/start, or nil.
func (r *TimetableSlotRepository) FindByFaculty(ctx context.Context, exec sqlx.ExtContext, facultyID string, day int, start, excludeSlotID string) (*models.TimetableSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM timetable_slots WHERE faculty_id = $1 AND day_of_week = $2 AND start_time = $3 AND id <> $4 ORDER BY created_at ASC LIMIT 1`
	slot, err := r.getOne(ctx, exec, query, facultyID, day, start, excludeSlotID)
	if err != nil {
		return nil, fmt.Errorf("find slot by faculty: %w", err)
	}
	return slot, nil
}

// FindByRoom returns another slot booking the room at day/start, or nil.
func (r *TimetableSlotRepository) FindByRoom(ctx context.Context, exec sqlx.ExtContext, roomID string, day int, start, excludeSlotID string) (*models.TimetableSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM timetable_slots WHERE room_id = $1 AND day_of_week = $2 AND start_time = $3 AND id <> $4 ORDER BY created_at ASC LIMIT 1`
	slot, err := r.getOne(ctx, exec, query, roomID, day, start, excludeSlotID)
	if err != nil {
		return nil, fmt.Errorf("find slot by room: %w", err)
	}
	return slot, nil
}

// CountFacultyLoad counts the faculty's slots on day, excluding one slot.
func (r *TimetableSlotRepository) CountFacultyLoad(ctx context.Context, exec sqlx.ExtContext, facultyID string, day int, excludeSlotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_slots WHERE faculty_id = $1 AND day_of_week = $2 AND id <> $3`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, facultyID, day, excludeSlotID); err != nil {
		return 0, fmt.Errorf("count faculty load: %w", err)
	}
	return count, nil
}

// ListByGrid returns every slot of a course-semester ordered by day/time.
func (r *TimetableSlotRepository) ListByGrid(ctx context.Context, key models.GridKey) ([]models.TimetableSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM timetable_slots WHERE course_id = $1 AND semester = $2 ORDER BY day_of_week ASC, start_time ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, key.CourseID, key.Semester); err != nil {
		return nil, fmt.Errorf("list grid slots: %w", err)
	}
	return slots, nil
}

// Insert stores a new slot, assigning id and created_at when missing.
func (r *TimetableSlotRepository) Insert(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_slots (id, course_id, semester, day_of_week, start_time, end_time, subject_id, faculty_id, room_id, created_at)
VALUES (:id, :course_id, :semester, :day_of_week, :start_time, :end_time, :subject_id, :faculty_id, :room_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("insert timetable slot: %w", err)
	}
	return nil
}

// DeleteByCell removes the occupant of a cell.
func (r *TimetableSlotRepository) DeleteByCell(ctx context.Context, exec sqlx.ExtContext, cell models.SlotCell) (int64, error) {
	const query = `DELETE FROM timetable_slots WHERE course_id = $1 AND semester = $2 AND day_of_week = $3 AND start_time = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, cell.CourseID, cell.Semester, cell.DayOfWeek, cell.StartTime)
	if err != nil {
		return 0, fmt.Errorf("delete slot by cell: %w", err)
	}
	return rowsAffected(result)
}

// DeleteByGrid removes all slots of one course-semester and returns the rows
// it removed.
func (r *TimetableSlotRepository) DeleteByGrid(ctx context.Context, key models.GridKey) ([]models.TimetableSlot, error) {
	query := `DELETE FROM timetable_slots WHERE course_id = $1 AND semester = $2 RETURNING ` + slotColumns
	var removed []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &removed, query, key.CourseID, key.Semester); err != nil {
		return nil, fmt.Errorf("delete grid slots: %w", err)
	}
	return removed, nil
}

// DeleteAll removes every slot.
func (r *TimetableSlotRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots`)
	if err != nil {
		return 0, fmt.Errorf("delete all slots: %w", err)
	}
	return rowsAffected(result)
}

// CountDistinctGrids counts course-semester pairs having at least one slot.
func (r *TimetableSlotRepository) CountDistinctGrids(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM (SELECT DISTINCT course_id, semester FROM timetable_slots) grids`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count distinct grids: %w", err)
	}
	return count, nil
}

func rowsAffected(result sql.Result) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check affected rows: %w", err)
	}
	return affected, nil
}
