package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// CatalogRepository reads reference data: courses, subjects, faculty, rooms
// and faculty-subject assignments. Lookups by id return sql.ErrNoRows when the
// row does not exist.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const (
	courseColumns  = `id, name, code, department_id, total_semesters, created_at`
	subjectColumns = `id, name, code, course_id, semester, type, credits, created_at`
	facultyColumns = `id, name, email, department_id, status, created_at`
	roomColumns    = `id, name, type, building, floor, capacity, status, created_at`
)

// FindCourse loads a course by id.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindSubject loads a subject by id.
func (r *CatalogRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindFaculty loads a faculty member by id.
func (r *CatalogRepository) FindFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, `SELECT `+facultyColumns+` FROM faculty WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// FindRoom loads a room by id.
func (r *CatalogRepository) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListFacultyByDepartment returns faculty of a department, lowest id first.
func (r *CatalogRepository) ListFacultyByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error) {
	var faculty []models.Faculty
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE department_id = $1 ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &faculty, query, departmentID); err != nil {
		return nil, fmt.Errorf("list faculty by department: %w", err)
	}
	return faculty, nil
}

// ListActiveFaculty returns every ACTIVE faculty member, lowest id first.
func (r *CatalogRepository) ListActiveFaculty(ctx context.Context) ([]models.Faculty, error) {
	var faculty []models.Faculty
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE status = $1 ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &faculty, query, models.FacultyStatusActive); err != nil {
		return nil, fmt.Errorf("list active faculty: %w", err)
	}
	return faculty, nil
}

// ListSubjectAssignments returns the faculty assigned to a subject, oldest
// assignment first and faculty id as tie-breaker.
func (r *CatalogRepository) ListSubjectAssignments(ctx context.Context, subjectID string) ([]models.FacultySubjectAssignment, error) {
	const query = `SELECT faculty_id, subject_id, assigned_at FROM faculty_subjects WHERE subject_id = $1 ORDER BY assigned_at ASC, faculty_id ASC`
	var assignments []models.FacultySubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject assignments: %w", err)
	}
	return assignments, nil
}
