package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type slotStore interface {
	slotGridReader
	LockKeys(ctx context.Context, exec sqlx.ExtContext, keys ...string) error
	Insert(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error
	DeleteByCell(ctx context.Context, exec sqlx.ExtContext, cell models.SlotCell) (int64, error)
	DeleteByGrid(ctx context.Context, key models.GridKey) ([]models.TimetableSlot, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountDistinctGrids(ctx context.Context) (int, error)
	ListByGrid(ctx context.Context, key models.GridKey) ([]models.TimetableSlot, error)
}

// TimetableService validates and commits slot assignments and performs scoped
// deletes. Assign and ClearCell run inside one transaction holding advisory
// locks on the cell, faculty and room keys they touch.
type TimetableService struct {
	slots     slotStore
	tx        txProvider
	catalog   Catalog
	checker   *ConflictValidator
	resolver  *FacultyResolver
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService wires the slot mutation service.
func NewTimetableService(
	slots slotStore,
	tx txProvider,
	catalog Catalog,
	checker *ConflictValidator,
	resolver *FacultyResolver,
	notifier Notifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		slots:     slots,
		tx:        tx,
		catalog:   catalog,
		checker:   checker,
		resolver:  resolver,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Validate reports whether a proposal could be committed right now.
func (s *TimetableService) Validate(ctx context.Context, req dto.ValidateSlotRequest) (*dto.ValidateSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation payload")
	}
	timeSlot, err := teachingSlot(req.StartTime)
	if err != nil {
		return nil, err
	}

	verdict, err := s.checker.Check(ctx, nil, SlotProposal{
		CourseID:      req.CourseID,
		SubjectID:     req.SubjectID,
		FacultyID:     req.FacultyID,
		RoomID:        req.RoomID,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     timeSlot.StartTime,
		EditingSlotID: req.EditingSlotID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordValidation(verdict.Valid)
	return &dto.ValidateSlotResponse{Valid: verdict.Valid, Reasons: verdict.Reasons, Suggestions: verdict.Suggestions}, nil
}

// Assign replaces the occupant of a cell with the requested subject. A
// proposal with blocking reasons yields Success=false and no error; a missing
// faculty yields ErrResourceExhausted.
func (s *TimetableService) Assign(ctx context.Context, req dto.AssignSlotRequest) (*dto.AssignSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	timeSlot, err := teachingSlot(req.StartTime)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	outcome := OutcomeFailed
	defer func() { s.metrics.RecordAssignment(outcome, time.Since(started)) }()

	course, err := s.catalog.GetCourse(ctx, req.CourseID)
	if err = missing(err); err != nil {
		return nil, err
	}
	subject, err := s.catalog.GetSubject(ctx, req.SubjectID)
	if err = missing(err); err != nil {
		return nil, err
	}

	// Unknown course or subject ids are reported by the validator below.
	facultyID, roomID := req.FacultyID, req.RoomID
	var source FacultySource
	switch {
	case course == nil, subject == nil:
	case subject.Type.IsPlaceholder():
		facultyID, roomID = "", ""
	default:
		resolution, err := s.resolver.Resolve(ctx, req.CourseID, req.SubjectID, req.FacultyID)
		if err != nil {
			return nil, err
		}
		facultyID, source = resolution.FacultyID, resolution.Source
		s.metrics.RecordFacultyResolution(string(source))
	}

	cell := models.SlotCell{CourseID: req.CourseID, Semester: req.Semester, DayOfWeek: req.DayOfWeek, StartTime: timeSlot.StartTime}
	slot := &models.TimetableSlot{
		CourseID:  cell.CourseID,
		Semester:  cell.Semester,
		DayOfWeek: cell.DayOfWeek,
		StartTime: timeSlot.StartTime,
		EndTime:   timeSlot.EndTime,
		SubjectID: req.SubjectID,
		FacultyID: optional(facultyID),
		RoomID:    optional(roomID),
	}

	tx, err := s.tx.BeginTxx(ctx, database.ReadCommitted)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	keys := []string{
		cell.LockKey(),
		models.FacultyLockKey(facultyID, cell.DayOfWeek, cell.StartTime),
		models.RoomLockKey(roomID, cell.DayOfWeek, cell.StartTime),
	}
	if err := s.slots.LockKeys(ctx, tx, keys...); err != nil {
		return nil, appErrors.Internal(err, "failed to lock timetable cell")
	}

	previous, err := s.slots.FindByCell(ctx, tx, cell)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read timetable cell")
	}
	proposal := SlotProposal{
		CourseID:  cell.CourseID,
		SubjectID: req.SubjectID,
		FacultyID: facultyID,
		RoomID:    roomID,
		DayOfWeek: cell.DayOfWeek,
		StartTime: cell.StartTime,
	}
	if previous != nil {
		proposal.EditingSlotID = previous.ID
	}

	verdict, err := s.checker.Check(ctx, tx, proposal)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		outcome = OutcomeBlocked
		return &dto.AssignSlotResponse{
			Success:     false,
			Message:     "slot assignment blocked",
			Reasons:     verdict.Reasons,
			Suggestions: verdict.Suggestions,
		}, nil
	}

	if _, err := s.slots.DeleteByCell(ctx, tx, cell); err != nil {
		return nil, appErrors.Internal(err, "failed to clear timetable cell")
	}
	if err := s.slots.Insert(ctx, tx, slot); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "slot was booked concurrently")
		}
		return nil, appErrors.Internal(err, "failed to store timetable slot")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit slot assignment")
	}
	committed = true
	outcome = OutcomeCommitted

	s.logger.Info("timetable slot assigned",
		zap.String("course_id", slot.CourseID),
		zap.Int("semester", slot.Semester),
		zap.Int("day", slot.DayOfWeek),
		zap.String("start_time", slot.StartTime),
		zap.String("subject_id", slot.SubjectID),
		zap.String("faculty_id", slot.Faculty()),
		zap.String("faculty_source", string(source)),
		zap.Bool("replaced", previous != nil),
	)
	s.notify(ctx, models.SlotChange{
		Action:          models.SlotChangeAssigned,
		CourseID:        slot.CourseID,
		Semester:        slot.Semester,
		Slot:            slot,
		Previous:        previous,
		AffectedUserIDs: affectedFaculty(slot, previous),
	})

	return &dto.AssignSlotResponse{
		Success:     true,
		Slot:        slot,
		FacultyFrom: string(source),
		Message:     "slot assigned",
		Suggestions: verdict.Suggestions,
	}, nil
}

// ClearCell removes the occupant of one cell and returns it.
func (s *TimetableService) ClearCell(ctx context.Context, req dto.ClearCellRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell")
	}
	timeSlot, err := teachingSlot(req.StartTime)
	if err != nil {
		return nil, err
	}
	cell := models.SlotCell{CourseID: req.CourseID, Semester: req.Semester, DayOfWeek: req.DayOfWeek, StartTime: timeSlot.StartTime}

	tx, err := s.tx.BeginTxx(ctx, database.ReadCommitted)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.slots.LockKeys(ctx, tx, cell.LockKey()); err != nil {
		return nil, appErrors.Internal(err, "failed to lock timetable cell")
	}
	previous, err := s.slots.FindByCell(ctx, tx, cell)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read timetable cell")
	}
	if previous == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	if _, err := s.slots.DeleteByCell(ctx, tx, cell); err != nil {
		return nil, appErrors.Internal(err, "failed to clear timetable cell")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit cell clear")
	}
	committed = true

	s.metrics.RecordDeletion("cell", 1)
	s.logger.Info("timetable cell cleared", zap.String("slot_id", previous.ID), zap.String("course_id", cell.CourseID), zap.Int("semester", cell.Semester))
	s.notify(ctx, models.SlotChange{
		Action:          models.SlotChangeCleared,
		CourseID:        cell.CourseID,
		Semester:        cell.Semester,
		Previous:        previous,
		AffectedUserIDs: affectedFaculty(previous),
		Removed:         1,
	})
	return previous, nil
}

// DeleteGrid removes one course-semester grid, or every slot when All is set.
func (s *TimetableService) DeleteGrid(ctx context.Context, req dto.DeleteGridRequest) (*dto.DeleteGridResponse, error) {
	if req.All {
		removed, err := s.slots.DeleteAll(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to reset timetable")
		}
		s.metrics.RecordDeletion("all", removed)
		s.logger.Warn("timetable reset", zap.Int64("removed", removed))
		s.notify(ctx, models.SlotChange{Action: models.SlotChangeReset, Removed: removed})
		return &dto.DeleteGridResponse{Deleted: removed, Message: fmt.Sprintf("timetable reset, %d slots removed", removed)}, nil
	}

	key := models.GridKey{CourseID: strings.TrimSpace(req.CourseID), Semester: req.Semester}
	if key.CourseID == "" || key.Semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId and semester are required unless all is set")
	}

	deleted, err := s.slots.DeleteByGrid(ctx, key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to delete timetable grid")
	}
	removed := int64(len(deleted))

	s.metrics.RecordDeletion("grid", removed)
	s.logger.Info("timetable grid deleted", zap.String("course_id", key.CourseID), zap.Int("semester", key.Semester), zap.Int64("removed", removed))
	if removed > 0 {
		previous := make([]*models.TimetableSlot, len(deleted))
		for i := range deleted {
			previous[i] = &deleted[i]
		}
		s.notify(ctx, models.SlotChange{
			Action:          models.SlotChangeGrid,
			CourseID:        key.CourseID,
			Semester:        key.Semester,
			AffectedUserIDs: affectedFaculty(previous...),
			Removed:         removed,
		})
	}
	return &dto.DeleteGridResponse{
		Deleted: removed,
		Message: fmt.Sprintf("deleted %d slots for course %s semester %d", removed, key.CourseID, key.Semester),
	}, nil
}

// CountGrids returns the number of non-empty course-semester grids.
func (s *TimetableService) CountGrids(ctx context.Context) (*dto.CountGridsResponse, error) {
	count, err := s.slots.CountDistinctGrids(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count timetable grids")
	}
	return &dto.CountGridsResponse{Grids: count}, nil
}

// GetGrid renders a course-semester timetable as days by teaching slots.
func (s *TimetableService) GetGrid(ctx context.Context, courseID string, semester int) (*dto.GridView, error) {
	key := models.GridKey{CourseID: strings.TrimSpace(courseID), Semester: semester}
	if key.CourseID == "" || key.Semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId and semester are required")
	}
	slots, err := s.slots.ListByGrid(ctx, key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load timetable grid")
	}

	grid := models.NewSlotGrid(key, slots)
	view := &dto.GridView{
		CourseID:  key.CourseID,
		Semester:  key.Semester,
		TimeSlots: models.TeachingDay,
		Occupied:  grid.Len(),
	}
	for i, row := range grid.Rows() {
		day := i + models.MinDay
		view.Days = append(view.Days, dto.GridDay{Day: day, Name: models.DayName(day), Slots: row})
	}
	return view, nil
}

// TimeSlots returns the enumerated teaching day.
func (s *TimetableService) TimeSlots() dto.TimeSlotsResponse {
	return dto.TimeSlotsResponse{Slots: models.TeachingDay, Lunch: models.LunchBreak}
}

func (s *TimetableService) notify(ctx context.Context, change models.SlotChange) {
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now().UTC()
	}
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.logger.Warn("timetable change notification failed",
			zap.String("action", string(change.Action)),
			zap.String("course_id", change.CourseID),
			zap.Error(err),
		)
	}
}

func teachingSlot(raw string) (models.TimeSlot, error) {
	slot, ok := models.LookupTimeSlot(raw)
	if !ok {
		starts := make([]string, len(models.TeachingDay))
		for i, ts := range models.TeachingDay {
			starts[i] = ts.StartTime
		}
		return models.TimeSlot{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("startTime must be one of %s", strings.Join(starts, ", ")))
	}
	return slot, nil
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func affectedFaculty(slots ...*models.TimetableSlot) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot == nil || slot.Faculty() == "" {
			continue
		}
		if _, ok := seen[slot.Faculty()]; ok {
			continue
		}
		seen[slot.Faculty()] = struct{}{}
		ids = append(ids, slot.Faculty())
	}
	sort.Strings(ids)
	return ids
}
