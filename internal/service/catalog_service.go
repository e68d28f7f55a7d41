package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type catalogRepository interface {
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindFaculty(ctx context.Context, id string) (*models.Faculty, error)
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	ListFacultyByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error)
	ListActiveFaculty(ctx context.Context) ([]models.Faculty, error)
	ListSubjectAssignments(ctx context.Context, subjectID string) ([]models.FacultySubjectAssignment, error)
}

// Catalog is the read-only reference data consulted by the validator and the
// faculty resolver. Lookups by id fail with an error matching
// appErrors.ErrNotFound when the entity does not exist.
type Catalog interface {
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListFacultyInDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error)
	ListActiveFaculty(ctx context.Context) ([]models.Faculty, error)
	ListSubjectAssignments(ctx context.Context, subjectID string) ([]models.FacultySubjectAssignment, error)
}

// CatalogService reads reference data, caching course, subject and room
// lookups. Faculty are always read from the store so a status change takes
// effect on the next request.
type CatalogService struct {
	repo   catalogRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs the catalog accessor. cache may be nil.
func NewCatalogService(repo catalogRepository, cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cacheSvc, ttl: ttl, logger: logger}
}

// GetCourse returns a course by id.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return cachedLookup(ctx, s, "course", id, s.repo.FindCourse)
}

// GetSubject returns a subject by id.
func (s *CatalogService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	return cachedLookup(ctx, s, "subject", id, s.repo.FindSubject)
}

// GetFaculty returns a faculty member by id, bypassing the cache.
func (s *CatalogService) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	faculty, err := s.repo.FindFaculty(ctx, id)
	if err != nil {
		return nil, loadError("faculty", err)
	}
	return faculty, nil
}

// GetRoom returns a room by id.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return cachedLookup(ctx, s, "room", id, s.repo.FindRoom)
}

// ListFacultyInDepartment returns the department's faculty, lowest id first.
func (s *CatalogService) ListFacultyInDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error) {
	faculty, err := s.repo.ListFacultyByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list department faculty")
	}
	return faculty, nil
}

// ListActiveFaculty returns every active faculty member, lowest id first.
func (s *CatalogService) ListActiveFaculty(ctx context.Context) ([]models.Faculty, error) {
	faculty, err := s.repo.ListActiveFaculty(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list active faculty")
	}
	return faculty, nil
}

// ListSubjectAssignments returns the subject's faculty assignments, oldest first.
func (s *CatalogService) ListSubjectAssignments(ctx context.Context, subjectID string) ([]models.FacultySubjectAssignment, error) {
	assignments, err := s.repo.ListSubjectAssignments(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subject assignments")
	}
	return assignments, nil
}

// Invalidate drops every cached catalog entry.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cache.Key("catalog", "*"))
}

func cachedLookup[T any](ctx context.Context, s *CatalogService, kind, id string, load func(context.Context, string) (*T, error)) (*T, error) {
	key := cache.Key("catalog", kind, id)
	var cached T
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	value, err := load(ctx, id)
	if err != nil {
		return nil, loadError(kind, err)
	}

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug("catalog cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func loadError(kind string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
	}
	return appErrors.Internal(err, "failed to load "+kind)
}
