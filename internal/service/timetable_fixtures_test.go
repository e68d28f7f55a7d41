package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type stubCatalog struct {
	courses     map[string]models.Course
	subjects    map[string]models.Subject
	faculty     map[string]models.Faculty
	rooms       map[string]models.Room
	assignments map[string][]models.FacultySubjectAssignment
	err         error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		courses:     map[string]models.Course{},
		subjects:    map[string]models.Subject{},
		faculty:     map[string]models.Faculty{},
		rooms:       map[string]models.Room{},
		assignments: map[string][]models.FacultySubjectAssignment{},
	}
}

// seededCatalog holds two courses of one department, lecture and lab rooms and
// two active faculty members.
func seededCatalog() *stubCatalog {
	c := newStubCatalog()
	c.courses["c1"] = models.Course{ID: "c1", Name: "C1", DepartmentID: "dep-cs", TotalSemesters: 8}
	c.courses["c2"] = models.Course{ID: "c2", Name: "C2", DepartmentID: "dep-cs", TotalSemesters: 8}
	c.courses["c9"] = models.Course{ID: "c9", Name: "C9", DepartmentID: "dep-empty", TotalSemesters: 6}
	for _, s := range []models.Subject{
		{ID: "s1", Name: "S1", CourseID: "c1", Semester: 1, Type: models.SubjectTypeLecture},
		{ID: "s2", Name: "S2", CourseID: "c2", Semester: 1, Type: models.SubjectTypeLecture},
		{ID: "s3", Name: "S3", CourseID: "c1", Semester: 1, Type: models.SubjectTypeLecture},
		{ID: "lab", Name: "Circuits Lab", CourseID: "c1", Semester: 1, Type: models.SubjectTypeLab},
		{ID: "free", Name: "Free Period", CourseID: "c1", Semester: 1, Type: models.SubjectTypeFree},
		{ID: "lunch", Name: "Lunch", CourseID: "c1", Semester: 1, Type: models.SubjectTypeLunch},
		{ID: "s9", Name: "S9", CourseID: "c9", Semester: 1, Type: models.SubjectTypeLecture},
	} {
		c.subjects[s.ID] = s
	}
	c.faculty["f1"] = models.Faculty{ID: "f1", Name: "F1", DepartmentID: "dep-cs", Status: models.FacultyStatusActive}
	c.faculty["f2"] = models.Faculty{ID: "f2", Name: "F2", DepartmentID: "dep-math", Status: models.FacultyStatusActive}
	c.rooms["r1"] = models.Room{ID: "r1", Name: "R1", Type: models.RoomTypeLecture}
	c.rooms["r2"] = models.Room{ID: "r2", Name: "R2", Type: models.RoomTypeLecture}
	c.rooms["lab-1"] = models.Room{ID: "lab-1", Name: "Lab 1", Type: models.RoomTypeLab}
	return c
}

func notFound(kind string) error {
	return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
}

func (c *stubCatalog) GetCourse(_ context.Context, id string) (*models.Course, error) {
	if c.err != nil {
		return nil, c.err
	}
	if v, ok := c.courses[id]; ok {
		return &v, nil
	}
	return nil, notFound("course")
}

func (c *stubCatalog) GetSubject(_ context.Context, id string) (*models.Subject, error) {
	if c.err != nil {
		return nil, c.err
	}
	if v, ok := c.subjects[id]; ok {
		return &v, nil
	}
	return nil, notFound("subject")
}

func (c *stubCatalog) GetFaculty(_ context.Context, id string) (*models.Faculty, error) {
	if c.err != nil {
		return nil, c.err
	}
	if v, ok := c.faculty[id]; ok {
		return &v, nil
	}
	return nil, notFound("faculty")
}

func (c *stubCatalog) GetRoom(_ context.Context, id string) (*models.Room, error) {
	if c.err != nil {
		return nil, c.err
	}
	if v, ok := c.rooms[id]; ok {
		return &v, nil
	}
	return nil, notFound("room")
}

// Map iteration order is random, which also checks that callers do not rely
// on list order.
func (c *stubCatalog) ListFacultyInDepartment(_ context.Context, departmentID string) ([]models.Faculty, error) {
	var out []models.Faculty
	for _, f := range c.faculty {
		if f.DepartmentID == departmentID {
			out = append(out, f)
		}
	}
	return out, c.err
}

func (c *stubCatalog) ListActiveFaculty(_ context.Context) ([]models.Faculty, error) {
	var out []models.Faculty
	for _, f := range c.faculty {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out, c.err
}

func (c *stubCatalog) ListSubjectAssignments(_ context.Context, subjectID string) ([]models.FacultySubjectAssignment, error) {
	return c.assignments[subjectID], c.err
}

// memGrid is an in-memory slot store that enforces the same unique keys as
// the timetable_slots table.
type memGrid struct {
	mu      sync.Mutex
	slots   map[string]models.TimetableSlot
	locks   [][]string
	seq     int
	readErr error
	// deleteHook runs under the lock just before a grid delete, standing in
	// for a commit that lands between the request and the statement.
	deleteHook func(*memGrid)
}

func newMemGrid() *memGrid {
	return &memGrid{slots: map[string]models.TimetableSlot{}}
}

func (g *memGrid) put(slot models.TimetableSlot) models.TimetableSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot.ID == "" {
		g.seq++
		slot.ID = fmt.Sprintf("slot-%d", g.seq)
	}
	g.slots[slot.ID] = slot
	return slot
}

func (g *memGrid) find(match func(models.TimetableSlot) bool) (*models.TimetableSlot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return nil, g.readErr
	}
	for _, slot := range g.slots {
		if match(slot) {
			cp := slot
			return &cp, nil
		}
	}
	return nil, nil
}

func (g *memGrid) FindByCell(_ context.Context, _ sqlx.ExtContext, cell models.SlotCell) (*models.TimetableSlot, error) {
	return g.find(func(s models.TimetableSlot) bool { return s.Cell() == cell })
}

func (g *memGrid) FindByFaculty(_ context.Context, _ sqlx.ExtContext, facultyID string, day int, start, exclude string) (*models.TimetableSlot, error) {
	return g.find(func(s models.TimetableSlot) bool {
		return s.Faculty() == facultyID && s.DayOfWeek == day && s.StartTime == start && s.ID != exclude
	})
}

func (g *memGrid) FindByRoom(_ context.Context, _ sqlx.ExtContext, roomID string, day int, start, exclude string) (*models.TimetableSlot, error) {
	return g.find(func(s models.TimetableSlot) bool {
		return s.Room() == roomID && s.DayOfWeek == day && s.StartTime == start && s.ID != exclude
	})
}

func (g *memGrid) CountFacultyLoad(_ context.Context, _ sqlx.ExtContext, facultyID string, day int, exclude string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return 0, g.readErr
	}
	n := 0
	for _, s := range g.slots {
		if s.Faculty() == facultyID && s.DayOfWeek == day && s.ID != exclude {
			n++
		}
	}
	return n, nil
}

func (g *memGrid) LockKeys(_ context.Context, _ sqlx.ExtContext, keys ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locks = append(g.locks, keys)
	return nil
}

func (g *memGrid) Insert(_ context.Context, _ sqlx.ExtContext, slot *models.TimetableSlot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.slots {
		sameTime := s.DayOfWeek == slot.DayOfWeek && s.StartTime == slot.StartTime
		switch {
		case s.Cell() == slot.Cell(),
			sameTime && slot.Faculty() != "" && s.Faculty() == slot.Faculty(),
			sameTime && slot.Room() != "" && s.Room() == slot.Room():
			return fmt.Errorf("insert timetable slot: %w", &pq.Error{Code: "23505"})
		}
	}
	if slot.ID == "" {
		g.seq++
		slot.ID = fmt.Sprintf("slot-%d", g.seq)
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	g.slots[slot.ID] = *slot
	return nil
}

func (g *memGrid) DeleteByCell(_ context.Context, _ sqlx.ExtContext, cell models.SlotCell) (int64, error) {
	return g.deleteWhere(func(s models.TimetableSlot) bool { return s.Cell() == cell }), nil
}

func (g *memGrid) DeleteByGrid(_ context.Context, key models.GridKey) ([]models.TimetableSlot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteHook != nil {
		g.deleteHook(g)
	}
	var removed []models.TimetableSlot
	for id, s := range g.slots {
		if s.CourseID == key.CourseID && s.Semester == key.Semester {
			removed = append(removed, s)
			delete(g.slots, id)
		}
	}
	return removed, nil
}

func (g *memGrid) DeleteAll(context.Context) (int64, error) {
	return g.deleteWhere(func(models.TimetableSlot) bool { return true }), nil
}

func (g *memGrid) deleteWhere(match func(models.TimetableSlot) bool) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	for id, s := range g.slots {
		if match(s) {
			delete(g.slots, id)
			n++
		}
	}
	return n
}

func (g *memGrid) CountDistinctGrids(context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	grids := map[models.GridKey]struct{}{}
	for _, s := range g.slots {
		grids[models.GridKey{CourseID: s.CourseID, Semester: s.Semester}] = struct{}{}
	}
	return len(grids), nil
}

func (g *memGrid) ListByGrid(_ context.Context, key models.GridKey) ([]models.TimetableSlot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.TimetableSlot
	for _, s := range g.slots {
		if s.CourseID == key.CourseID && s.Semester == key.Semester {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (g *memGrid) all() []models.TimetableSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.TimetableSlot, 0, len(g.slots))
	for _, s := range g.slots {
		out = append(out, s)
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []models.SlotChange
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, change models.SlotChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return n.err
}

func (n *recordingNotifier) recorded() []models.SlotChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.SlotChange(nil), n.changes...)
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type timetableFixture struct {
	svc      *TimetableService
	grid     *memGrid
	catalog  *stubCatalog
	notifier *recordingNotifier
	mock     sqlmock.Sqlmock
}

func newTimetableFixture(t *testing.T, opts ValidatorOptions) *timetableFixture {
	t.Helper()
	catalog := seededCatalog()
	grid := newMemGrid()
	notifier := &recordingNotifier{}
	tx, mock := newTxProviderMock(t)
	checker := NewConflictValidator(catalog, grid, opts, nil)
	resolver := NewFacultyResolver(catalog, nil)
	svc := NewTimetableService(grid, tx, catalog, checker, resolver, notifier, nil, nil, nil)
	return &timetableFixture{svc: svc, grid: grid, catalog: catalog, notifier: notifier, mock: mock}
}

var errStoreDown = errors.New("connection refused")
