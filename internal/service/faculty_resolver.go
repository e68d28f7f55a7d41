package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// FacultySource records which fallback step produced a faculty binding.
type FacultySource string

const (
	FacultyFromRequest    FacultySource = "REQUEST"
	FacultyFromAssignment FacultySource = "SUBJECT_ASSIGNMENT"
	FacultyFromDepartment FacultySource = "DEPARTMENT"
	FacultyFromAnyActive  FacultySource = "ANY_ACTIVE"
)

// FacultyResolution is the faculty chosen for a slot.
type FacultyResolution struct {
	FacultyID string
	Source    FacultySource
}

// FacultyResolver picks a faculty member when the caller omits one. Steps
// run in order and the first match wins:
//
//  1. the explicit faculty id
//  2. the oldest active assignment for the subject
//  3. the lowest-id active faculty of the course's department
//  4. the lowest-id active faculty anywhere
type FacultyResolver struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewFacultyResolver constructs a resolver over catalog.
func NewFacultyResolver(catalog Catalog, logger *zap.Logger) *FacultyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyResolver{catalog: catalog, logger: logger}
}

// Resolve returns the faculty for a slot of subjectID in courseID. It fails
// with ErrResourceExhausted when no active faculty exists.
func (r *FacultyResolver) Resolve(ctx context.Context, courseID, subjectID, explicitFacultyID string) (*FacultyResolution, error) {
	if explicitFacultyID != "" {
		return &FacultyResolution{FacultyID: explicitFacultyID, Source: FacultyFromRequest}, nil
	}

	assignments, err := r.catalog.ListSubjectAssignments(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	for _, assignment := range assignments {
		faculty, err := r.catalog.GetFaculty(ctx, assignment.FacultyID)
		if err = missing(err); err != nil {
			return nil, err
		}
		if faculty != nil && faculty.Active() {
			return &FacultyResolution{FacultyID: faculty.ID, Source: FacultyFromAssignment}, nil
		}
	}

	course, err := r.catalog.GetCourse(ctx, courseID)
	if err = missing(err); err != nil {
		return nil, err
	}
	if course != nil && course.DepartmentID != "" {
		members, err := r.catalog.ListFacultyInDepartment(ctx, course.DepartmentID)
		if err != nil {
			return nil, err
		}
		if faculty := firstActive(members); faculty != nil {
			return &FacultyResolution{FacultyID: faculty.ID, Source: FacultyFromDepartment}, nil
		}
	} else if course == nil {
		r.logger.Debug("course not found, skipping department fallback", zap.String("course_id", courseID))
	}

	active, err := r.catalog.ListActiveFaculty(ctx)
	if err != nil {
		return nil, err
	}
	if faculty := firstActive(active); faculty != nil {
		return &FacultyResolution{FacultyID: faculty.ID, Source: FacultyFromAnyActive}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrResourceExhausted, "no faculty available to assign")
}

// firstActive returns the lowest-id active member regardless of input order.
func firstActive(faculty []models.Faculty) *models.Faculty {
	var best *models.Faculty
	for i := range faculty {
		if !faculty[i].Active() {
			continue
		}
		if best == nil || faculty[i].ID < best.ID {
			best = &faculty[i]
		}
	}
	return best
}
