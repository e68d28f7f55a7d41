package models

import (
	"fmt"
	"time"
)

// TimetableSlot is one occupied cell of a course-semester grid. Faculty and
// room are empty for FREE and LUNCH subjects.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Semester  int       `db:"semester" json:"semester"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	FacultyID *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	RoomID    *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Cell returns the grid position the slot occupies.
func (s TimetableSlot) Cell() SlotCell {
	return SlotCell{CourseID: s.CourseID, Semester: s.Semester, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime}
}

// Faculty returns the faculty id or "".
func (s TimetableSlot) Faculty() string {
	if s.FacultyID == nil {
		return ""
	}
	return *s.FacultyID
}

// Room returns the room id or "".
func (s TimetableSlot) Room() string {
	if s.RoomID == nil {
		return ""
	}
	return *s.RoomID
}

// SlotCell identifies a (course, semester, day, start time) position.
type SlotCell struct {
	CourseID  string `json:"course_id"`
	Semester  int    `json:"semester"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
}

// LockKey is the serialization key for mutations of this cell.
func (c SlotCell) LockKey() string {
	return fmt.Sprintf("cell:%s:%d:%d:%s", c.CourseID, c.Semester, c.DayOfWeek, c.StartTime)
}

// FacultyLockKey serializes bookings of a faculty member at a day/time.
func FacultyLockKey(facultyID string, day int, start string) string {
	if facultyID == "" {
		return ""
	}
	return fmt.Sprintf("faculty:%s:%d:%s", facultyID, day, start)
}

// RoomLockKey serializes bookings of a room at a day/time.
func RoomLockKey(roomID string, day int, start string) string {
	if roomID == "" {
		return ""
	}
	return fmt.Sprintf("room:%s:%d:%s", roomID, day, start)
}

// GridKey identifies one course-semester timetable.
type GridKey struct {
	CourseID string `db:"course_id" json:"course_id"`
	Semester int    `db:"semester" json:"semester"`
}

// SlotGrid is the 2-D [day][start time] view of a course-semester timetable.
type SlotGrid struct {
	GridKey
	cells map[int]map[string]TimetableSlot
}

// NewSlotGrid indexes slots belonging to key; slots of other grids are ignored.
func NewSlotGrid(key GridKey, slots []TimetableSlot) *SlotGrid {
	grid := &SlotGrid{GridKey: key, cells: make(map[int]map[string]TimetableSlot)}
	for _, slot := range slots {
		if slot.CourseID != key.CourseID || slot.Semester != key.Semester {
			continue
		}
		day, ok := grid.cells[slot.DayOfWeek]
		if !ok {
			day = make(map[string]TimetableSlot)
			grid.cells[slot.DayOfWeek] = day
		}
		day[slot.StartTime] = slot
	}
	return grid
}

// Get returns the occupant of the cell at day/start.
func (g *SlotGrid) Get(day int, start string) (TimetableSlot, bool) {
	slot, ok := g.cells[day][start]
	return slot, ok
}

// Len returns the number of occupied cells.
func (g *SlotGrid) Len() int {
	n := 0
	for _, day := range g.cells {
		n += len(day)
	}
	return n
}

// Rows lays the grid out as days 1..7 by TeachingDay, nil for empty cells.
func (g *SlotGrid) Rows() [][]*TimetableSlot {
	rows := make([][]*TimetableSlot, MaxDay)
	for day := MinDay; day <= MaxDay; day++ {
		row := make([]*TimetableSlot, len(TeachingDay))
		for i, ts := range TeachingDay {
			if slot, ok := g.Get(day, ts.StartTime); ok {
				cp := slot
				row[i] = &cp
			}
		}
		rows[day-1] = row
	}
	return rows
}

// SlotVerdict is the outcome of validating a proposed assignment. Reasons
// block the commit; suggestions are advisory.
type SlotVerdict struct {
	Valid       bool     `json:"valid"`
	Reasons     []string `json:"reasons"`
	Suggestions []string `json:"suggestions"`
}

// NewSlotVerdict returns an empty, valid verdict.
func NewSlotVerdict() *SlotVerdict {
	return &SlotVerdict{Valid: true, Reasons: []string{}, Suggestions: []string{}}
}

// Block records a blocking reason.
func (v *SlotVerdict) Block(format string, args ...interface{}) {
	v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
	v.Valid = false
}

// Advise records a non-blocking suggestion.
func (v *SlotVerdict) Advise(format string, args ...interface{}) {
	v.Suggestions = append(v.Suggestions, fmt.Sprintf(format, args...))
}

// SlotChangeAction names the kind of timetable mutation.
type SlotChangeAction string

const (
	SlotChangeAssigned SlotChangeAction = "SLOT_ASSIGNED"
	SlotChangeCleared  SlotChangeAction = "SLOT_CLEARED"
	SlotChangeGrid     SlotChangeAction = "GRID_DELETED"
	SlotChangeReset    SlotChangeAction = "TIMETABLE_RESET"
)

// SlotChange is handed to the change notifier after a mutation commits.
type SlotChange struct {
	Action          SlotChangeAction `json:"action"`
	CourseID        string           `json:"course_id,omitempty"`
	Semester        int              `json:"semester,omitempty"`
	Slot            *TimetableSlot   `json:"slot,omitempty"`
	Previous        *TimetableSlot   `json:"previous,omitempty"`
	AffectedUserIDs []string         `json:"affected_user_ids,omitempty"`
	Removed         int64            `json:"removed,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
}
