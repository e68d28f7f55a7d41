package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func TestFacultyResolverExplicitWins(t *testing.T) {
	catalog := seededCatalog()
	catalog.assignments["s1"] = []models.FacultySubjectAssignment{{FacultyID: "f2", SubjectID: "s1"}}
	resolver := NewFacultyResolver(catalog, nil)

	res, err := resolver.Resolve(context.Background(), "c1", "s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", res.FacultyID)
	assert.Equal(t, FacultyFromRequest, res.Source)
}

func TestFacultyResolverSubjectAssignment(t *testing.T) {
	catalog := seededCatalog()
	catalog.faculty["f0"] = models.Faculty{ID: "f0", Status: models.FacultyStatusInactive, DepartmentID: "dep-cs"}
	assigned := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	catalog.assignments["s1"] = []models.FacultySubjectAssignment{
		{FacultyID: "f0", SubjectID: "s1", AssignedAt: assigned},
		{FacultyID: "missing", SubjectID: "s1", AssignedAt: assigned.Add(time.Hour)},
		{FacultyID: "f2", SubjectID: "s1", AssignedAt: assigned.Add(2 * time.Hour)},
	}
	resolver := NewFacultyResolver(catalog, nil)

	res, err := resolver.Resolve(context.Background(), "c1", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "f2", res.FacultyID)
	assert.Equal(t, FacultyFromAssignment, res.Source)
}

func TestFacultyResolverDepartmentFallback(t *testing.T) {
	catalog := seededCatalog()
	catalog.faculty["f0"] = models.Faculty{ID: "f0", Status: models.FacultyStatusInactive, DepartmentID: "dep-cs"}
	catalog.faculty["f7"] = models.Faculty{ID: "f7", Status: models.FacultyStatusActive, DepartmentID: "dep-cs"}
	resolver := NewFacultyResolver(catalog, nil)

	res, err := resolver.Resolve(context.Background(), "c1", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "f1", res.FacultyID)
	assert.Equal(t, FacultyFromDepartment, res.Source)
}

func TestFacultyResolverGlobalFallback(t *testing.T) {
	resolver := NewFacultyResolver(seededCatalog(), nil)

	res, err := resolver.Resolve(context.Background(), "c9", "s9", "")
	require.NoError(t, err)
	assert.Equal(t, "f1", res.FacultyID)
	assert.Equal(t, FacultyFromAnyActive, res.Source)
}

func TestFacultyResolverUnknownCourseSkipsDepartment(t *testing.T) {
	resolver := NewFacultyResolver(seededCatalog(), nil)

	res, err := resolver.Resolve(context.Background(), "no-such-course", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, FacultyFromAnyActive, res.Source)
}

func TestFacultyResolverExhausted(t *testing.T) {
	catalog := seededCatalog()
	catalog.faculty = map[string]models.Faculty{
		"f1": {ID: "f1", DepartmentID: "dep-cs", Status: models.FacultyStatusInactive},
	}
	resolver := NewFacultyResolver(catalog, nil)

	res, err := resolver.Resolve(context.Background(), "c1", "s1", "")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrResourceExhausted)
	assert.Equal(t, "no faculty available to assign", appErrors.FromError(err).Message)
}

func TestFacultyResolverDeterministic(t *testing.T) {
	catalog := seededCatalog()
	for _, id := range []string{"f9", "f5", "f3", "f8"} {
		catalog.faculty[id] = models.Faculty{ID: id, DepartmentID: "dep-other", Status: models.FacultyStatusActive}
	}
	resolver := NewFacultyResolver(catalog, nil)

	first, err := resolver.Resolve(context.Background(), "c9", "s9", "")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		again, err := resolver.Resolve(context.Background(), "c9", "s9", "")
		require.NoError(t, err)
		assert.Equal(t, first.FacultyID, again.FacultyID)
	}
	assert.Equal(t, "f1", first.FacultyID)
}

func TestFacultyResolverPropagatesStoreFailure(t *testing.T) {
	catalog := seededCatalog()
	catalog.err = appErrors.Internal(errStoreDown, "failed to list subject assignments")
	resolver := NewFacultyResolver(catalog, nil)

	_, err := resolver.Resolve(context.Background(), "c1", "s1", "")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
