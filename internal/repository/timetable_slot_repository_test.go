package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

var slotRowColumns = []string{"id", "course_id", "semester", "day_of_week", "start_time", "end_time", "subject_id", "faculty_id", "room_id", "created_at"}

func newSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableSlotRepositoryFindByCell(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-1", "course-1", 3, 1, "09:00", "10:00", "sub-1", "f-1", "r-1", time.Now())
	mock.ExpectQuery("FROM timetable_slots WHERE course_id = \\$1 AND semester = \\$2 AND day_of_week = \\$3 AND start_time = \\$4").
		WithArgs("course-1", 3, 1, "09:00").
		WillReturnRows(rows)

	slot, err := repo.FindByCell(context.Background(), nil, models.SlotCell{CourseID: "course-1", Semester: 3, DayOfWeek: 1, StartTime: "09:00"})
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "f-1", slot.Faculty())
	assert.Equal(t, "r-1", slot.Room())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryFindByCellEmpty(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectQuery("FROM timetable_slots WHERE course_id").
		WillReturnError(sql.ErrNoRows)

	slot, err := repo.FindByCell(context.Background(), nil, models.SlotCell{CourseID: "course-1", Semester: 1, DayOfWeek: 2, StartTime: "10:00"})
	require.NoError(t, err)
	assert.Nil(t, slot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryFindByFacultyExcludesSlot(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-9", "course-2", 1, 1, "09:00", "10:00", "sub-9", "f-1", nil, time.Now())
	mock.ExpectQuery("FROM timetable_slots WHERE faculty_id = \\$1 AND day_of_week = \\$2 AND start_time = \\$3 AND id <> \\$4").
		WithArgs("f-1", 1, "09:00", "slot-1").
		WillReturnRows(rows)

	slot, err := repo.FindByFaculty(context.Background(), nil, "f-1", 1, "09:00", "slot-1")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "course-2", slot.CourseID)
	assert.Nil(t, slot.RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryFindByRoomError(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectQuery("FROM timetable_slots WHERE room_id").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByRoom(context.Background(), nil, "r-1", 1, "09:00", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find slot by room")
}

func TestTimetableSlotRepositoryCountFacultyLoad(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_slots WHERE faculty_id = $1 AND day_of_week = $2 AND id <> $3")).
		WithArgs("f-1", 2, "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountFacultyLoad(context.Background(), nil, "f-1", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryInsertWithinTx(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	faculty := "f-1"
	room := "r-1"
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs("cell:course-1:3:1:09:00").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM timetable_slots WHERE course_id").
		WithArgs("course-1", 3, 1, "09:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timetable_slots").
		WithArgs(sqlmock.AnyArg(), "course-1", 3, 1, "09:00", "10:00", "sub-1", "f-1", "r-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	slot := &models.TimetableSlot{CourseID: "course-1", Semester: 3, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-1", FacultyID: &faculty, RoomID: &room}
	require.NoError(t, repo.LockKeys(context.Background(), tx, slot.Cell().LockKey()))
	removed, err := repo.DeleteByCell(context.Background(), tx, slot.Cell())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.NoError(t, repo.Insert(context.Background(), tx, slot))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryDeleteByGridAndAll(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-1", "course-1", 3, 1, "09:00", "10:00", "sub-1", "f-1", "r-1", time.Now()).
		AddRow("slot-2", "course-1", 3, 2, "13:00", "14:00", "free", nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM timetable_slots WHERE course_id = $1 AND semester = $2 RETURNING id,")).
		WithArgs("course-1", 3).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_slots")).
		WillReturnResult(sqlmock.NewResult(0, 30))

	deleted, err := repo.DeleteByGrid(context.Background(), models.GridKey{CourseID: "course-1", Semester: 3})
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, "f-1", deleted[0].Faculty())
	assert.Nil(t, deleted[1].FacultyID)

	removed, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(30), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryCountDistinctGrids(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT DISTINCT course_id, semester FROM timetable_slots) grids")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountDistinctGrids(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryListByGrid(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-1", "course-1", 3, 1, "09:00", "10:00", "sub-1", "f-1", "r-1", time.Now()).
		AddRow("slot-2", "course-1", 3, 1, "12:00", "13:00", "lunch", nil, nil, time.Now())
	mock.ExpectQuery("ORDER BY day_of_week ASC, start_time ASC").
		WithArgs("course-1", 3).
		WillReturnRows(rows)

	slots, err := repo.ListByGrid(context.Background(), models.GridKey{CourseID: "course-1", Semester: 3})
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
