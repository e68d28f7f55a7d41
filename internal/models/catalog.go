package models

import "time"

// SubjectType classifies how a subject is taught.
type SubjectType string

const (
	SubjectTypeLecture  SubjectType = "LECTURE"
	SubjectTypeLab      SubjectType = "LAB"
	SubjectTypeWorkshop SubjectType = "WORKSHOP"
	SubjectTypeFree     SubjectType = "FREE"
	SubjectTypeLunch    SubjectType = "LUNCH"
)

// IsPlaceholder reports whether the subject fills a cell without a faculty member or
// room (free periods and lunch).
func (t SubjectType) IsPlaceholder() bool {
	return t == SubjectTypeFree || t == SubjectTypeLunch
}

// RoomType classifies rooms.
type RoomType string

const (
	RoomTypeLecture RoomType = "LECTURE"
	RoomTypeLab     RoomType = "LAB"
)

// FacultyStatus is the employment status of a faculty member.
type FacultyStatus string

const (
	FacultyStatusActive   FacultyStatus = "ACTIVE"
	FacultyStatusInactive FacultyStatus = "INACTIVE"
)

// Course is a degree programme split into semesters.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Code           string    `db:"code" json:"code"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	TotalSemesters int       `db:"total_semesters" json:"total_semesters"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Subject belongs to one course semester.
type Subject struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Code      string      `db:"code" json:"code"`
	CourseID  string      `db:"course_id" json:"course_id"`
	Semester  int         `db:"semester" json:"semester"`
	Type      SubjectType `db:"type" json:"type"`
	Credits   int         `db:"credits" json:"credits"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Faculty is a teaching staff member.
type Faculty struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Email        string        `db:"email" json:"email"`
	DepartmentID string        `db:"department_id" json:"department_id"`
	Status       FacultyStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// Active reports whether the faculty member can be scheduled.
func (f Faculty) Active() bool {
	return f.Status == FacultyStatusActive
}

// Room is a bookable teaching space.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      RoomType  `db:"type" json:"type"`
	Building  string    `db:"building" json:"building"`
	Floor     int       `db:"floor" json:"floor"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FacultySubjectAssignment maps a faculty member to a subject they teach.
type FacultySubjectAssignment struct {
	FacultyID  string    `db:"faculty_id" json:"faculty_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}
