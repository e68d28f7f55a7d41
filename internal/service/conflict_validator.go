package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// DefaultHighLoadThreshold is the daily slot count at which a faculty load
// advisory is raised.
const DefaultHighLoadThreshold = 4

type slotGridReader interface {
	FindByCell(ctx context.Context, exec sqlx.ExtContext, cell models.SlotCell) (*models.TimetableSlot, error)
	FindByFaculty(ctx context.Context, exec sqlx.ExtContext, facultyID string, day int, start, excludeSlotID string) (*models.TimetableSlot, error)
	FindByRoom(ctx context.Context, exec sqlx.ExtContext, roomID string, day int, start, excludeSlotID string) (*models.TimetableSlot, error)
	CountFacultyLoad(ctx context.Context, exec sqlx.ExtContext, facultyID string, day int, excludeSlotID string) (int, error)
}

// SlotProposal is a candidate assignment. StartTime must already be one of
// the enumerated teaching slots. CourseID is checked against the catalog when
// set.
type SlotProposal struct {
	CourseID      string
	SubjectID     string
	FacultyID     string
	RoomID        string
	DayOfWeek     int
	StartTime     string
	EditingSlotID string
}

// ValidatorOptions tunes the ConflictValidator.
type ValidatorOptions struct {
	StrictRoomTypeMatching bool
	HighLoadThreshold      int
}

// ConflictValidator decides whether a proposal may be committed. Every check
// runs and its findings accumulate on the verdict; only store failures abort.
type ConflictValidator struct {
	catalog Catalog
	grid    slotGridReader
	opts    ValidatorOptions
	logger  *zap.Logger
}

// NewConflictValidator wires the validator to its read dependencies.
func NewConflictValidator(catalog Catalog, grid slotGridReader, opts ValidatorOptions, logger *zap.Logger) *ConflictValidator {
	if opts.HighLoadThreshold <= 0 {
		opts.HighLoadThreshold = DefaultHighLoadThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictValidator{catalog: catalog, grid: grid, opts: opts, logger: logger}
}

// Check evaluates p against the grid as seen through exec (nil reads the pool).
func (v *ConflictValidator) Check(ctx context.Context, exec sqlx.ExtContext, p SlotProposal) (*models.SlotVerdict, error) {
	timeSlot, ok := models.LookupTimeSlot(p.StartTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start time %q is not a teaching slot", p.StartTime))
	}
	start := timeSlot.StartTime
	verdict := models.NewSlotVerdict()

	if p.CourseID != "" {
		course, err := v.catalog.GetCourse(ctx, p.CourseID)
		if err = missing(err); err != nil {
			return nil, err
		}
		if course == nil {
			verdict.Block("Course not found")
		}
	}

	subject, err := v.catalog.GetSubject(ctx, p.SubjectID)
	if err = missing(err); err != nil {
		return nil, err
	}
	if subject != nil && subject.Type.IsPlaceholder() {
		return verdict, nil
	}
	if subject == nil {
		verdict.Block("Subject not found")
	}

	var faculty *models.Faculty
	if p.FacultyID != "" {
		faculty, err = v.catalog.GetFaculty(ctx, p.FacultyID)
		if err = missing(err); err != nil {
			return nil, err
		}
		if faculty == nil {
			verdict.Block("Faculty not found")
		} else {
			if !faculty.Active() {
				verdict.Advise("Faculty %s is not active", faculty.Name)
			}
			load, err := v.grid.CountFacultyLoad(ctx, exec, faculty.ID, p.DayOfWeek, p.EditingSlotID)
			if err != nil {
				return nil, appErrors.Internal(err, "failed to count faculty load")
			}
			if load >= v.opts.HighLoadThreshold {
				verdict.Advise("Faculty has high teaching load on this day (%d classes)", load)
			}
		}
	}

	var room *models.Room
	if p.RoomID != "" {
		room, err = v.catalog.GetRoom(ctx, p.RoomID)
		if err = missing(err); err != nil {
			return nil, err
		}
		if room == nil {
			verdict.Block("Room not found")
		} else if subject != nil {
			if msg := roomTypeMismatch(room, subject); msg != "" {
				if v.opts.StrictRoomTypeMatching {
					verdict.Block("%s", msg)
				} else {
					verdict.Advise("%s", msg)
				}
			}
		}
	}

	if faculty != nil {
		clash, err := v.grid.FindByFaculty(ctx, exec, faculty.ID, p.DayOfWeek, start, p.EditingSlotID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check faculty availability")
		}
		if clash != nil {
			subjectName, courseName := v.describe(ctx, clash)
			verdict.Block("Faculty is already assigned to %s for %s at this time.", subjectName, courseName)
		}
	}

	if room != nil {
		clash, err := v.grid.FindByRoom(ctx, exec, room.ID, p.DayOfWeek, start, p.EditingSlotID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check room availability")
		}
		if clash != nil {
			subjectName, courseName := v.describe(ctx, clash)
			verdict.Block("Room is already booked for %s for %s at this time.", subjectName, courseName)
		}
	}

	if faculty != nil {
		for _, neighbor := range timeSlot.Neighbors() {
			adjacent, err := v.grid.FindByFaculty(ctx, exec, faculty.ID, p.DayOfWeek, neighbor.StartTime, p.EditingSlotID)
			if err != nil {
				return nil, appErrors.Internal(err, "failed to check adjacent slots")
			}
			if adjacent != nil {
				verdict.Advise("Faculty has back-to-back classes at %s", neighbor.StartTime)
			}
		}
	}

	return verdict, nil
}

// describe names the subject and course of a conflicting slot, falling back
// to ids when the catalog cannot resolve them.
func (v *ConflictValidator) describe(ctx context.Context, slot *models.TimetableSlot) (string, string) {
	subjectName, courseName := slot.SubjectID, slot.CourseID
	if subject, err := v.catalog.GetSubject(ctx, slot.SubjectID); err == nil {
		subjectName = subject.Name
	} else {
		v.logger.Debug("conflict subject lookup failed", zap.String("subject_id", slot.SubjectID), zap.Error(err))
	}
	if course, err := v.catalog.GetCourse(ctx, slot.CourseID); err == nil {
		courseName = course.Name
	} else {
		v.logger.Debug("conflict course lookup failed", zap.String("course_id", slot.CourseID), zap.Error(err))
	}
	return subjectName, courseName
}

func roomTypeMismatch(room *models.Room, subject *models.Subject) string {
	isLab := subject.Type == models.SubjectTypeLab
	switch {
	case room.Type == models.RoomTypeLab && !isLab:
		return "Lab room assigned for non-lab subject"
	case room.Type == models.RoomTypeLecture && isLab:
		return "Lecture room assigned for lab subject"
	}
	return ""
}

// missing turns a not-found catalog error into nil so the caller can record
// it as a reason; any other error is returned.
func missing(err error) error {
	if err == nil || errors.Is(err, appErrors.ErrNotFound) {
		return nil
	}
	return err
}
