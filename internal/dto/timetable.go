package dto

import "github.com/noah-isme/campus-timetable-api/internal/models"

// ValidateSlotRequest asks whether a proposed assignment may be committed.
type ValidateSlotRequest struct {
	CourseID      string `json:"courseId"`
	SubjectID     string `json:"subjectId" validate:"required"`
	FacultyID     string `json:"facultyId"`
	RoomID        string `json:"roomId"`
	DayOfWeek     int    `json:"day" validate:"required,min=1,max=7"`
	StartTime     string `json:"startTime" validate:"required"`
	EditingSlotID string `json:"editingSlotId"`
}

// ValidateSlotResponse mirrors models.SlotVerdict.
type ValidateSlotResponse struct {
	Valid       bool     `json:"valid"`
	Reasons     []string `json:"reasons"`
	Suggestions []string `json:"suggestions"`
}

// AssignSlotRequest commits one cell of a course-semester grid.
type AssignSlotRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1"`
	SubjectID string `json:"subjectId" validate:"required"`
	FacultyID string `json:"facultyId"`
	RoomID    string `json:"roomId" validate:"required"`
	DayOfWeek int    `json:"day" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required"`
}

// AssignSlotResponse reports the committed slot or why it was refused.
type AssignSlotResponse struct {
	Success     bool                  `json:"success"`
	Slot        *models.TimetableSlot `json:"slot,omitempty"`
	FacultyFrom string                `json:"facultyFrom,omitempty"`
	Message     string                `json:"message,omitempty"`
	Reasons     []string              `json:"reasons,omitempty"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// DeleteGridRequest scopes a bulk delete to one grid or, with All, everything.
type DeleteGridRequest struct {
	CourseID string `json:"courseId"`
	Semester int    `json:"semester"`
	All      bool   `json:"all"`
}

// DeleteGridResponse confirms a bulk delete.
type DeleteGridResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// ClearCellRequest removes the occupant of a single cell.
type ClearCellRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1"`
	DayOfWeek int    `json:"day" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required"`
}

// CountGridsResponse reports the number of non-empty course-semester grids.
type CountGridsResponse struct {
	Grids int `json:"grids"`
}

// GridView renders a course-semester timetable as rows of days.
type GridView struct {
	CourseID  string            `json:"courseId"`
	Semester  int               `json:"semester"`
	TimeSlots []models.TimeSlot `json:"timeSlots"`
	Days      []GridDay         `json:"days"`
	Occupied  int               `json:"occupied"`
}

// GridDay is one row of a GridView.
type GridDay struct {
	Day   int                     `json:"day"`
	Name  string                  `json:"name"`
	Slots []*models.TimetableSlot `json:"slots"`
}

// TimeSlotsResponse lists the enumerated teaching day.
type TimeSlotsResponse struct {
	Slots []models.TimeSlot `json:"slots"`
	Lunch models.TimeSlot   `json:"lunch"`
}
