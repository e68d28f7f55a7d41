package models

import (
	"fmt"
	"time"
)

// TimeSlot is one enumerated teaching period of the day.
type TimeSlot struct {
	Index     int    `json:"index"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Block     string `json:"block"`
}

const (
	BlockMorning   = "MORNING"
	BlockAfternoon = "AFTERNOON"

	slotLayout = "15:04"
)

// TeachingDay lists the fixed start times of a day: three morning periods,
// the lunch break, then three afternoon periods.
var TeachingDay = []TimeSlot{
	{Index: 0, StartTime: "09:00", EndTime: "10:00", Block: BlockMorning},
	{Index: 1, StartTime: "10:00", EndTime: "11:00", Block: BlockMorning},
	{Index: 2, StartTime: "11:00", EndTime: "12:00", Block: BlockMorning},
	{Index: 3, StartTime: "13:00", EndTime: "14:00", Block: BlockAfternoon},
	{Index: 4, StartTime: "14:00", EndTime: "15:00", Block: BlockAfternoon},
	{Index: 5, StartTime: "15:00", EndTime: "16:00", Block: BlockAfternoon},
}

// LunchBreak is the boundary between the morning and afternoon blocks.
var LunchBreak = TimeSlot{Index: -1, StartTime: "12:00", EndTime: "13:00"}

// Days of the week, Monday = 1.
const (
	MinDay = 1
	MaxDay = 7
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English weekday name for day.
func DayName(day int) string {
	if day < MinDay || day > MaxDay {
		return fmt.Sprintf("day %d", day)
	}
	return dayNames[day]
}

// ValidDay reports whether day is within 1..7.
func ValidDay(day int) bool {
	return day >= MinDay && day <= MaxDay
}

// LookupTimeSlot resolves a start time such as "09:00" or "9:00" to its
// enumerated slot.
func LookupTimeSlot(start string) (TimeSlot, bool) {
	normalized, err := NormalizeStartTime(start)
	if err != nil {
		return TimeSlot{}, false
	}
	for _, slot := range TeachingDay {
		if slot.StartTime == normalized {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// NormalizeStartTime canonicalises a clock time to HH:MM.
func NormalizeStartTime(start string) (string, error) {
	for _, layout := range []string{slotLayout, "15:04:05", "3:04"} {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Format(slotLayout), nil
		}
	}
	return "", fmt.Errorf("invalid start time %q", start)
}

// Neighbors returns the enumerated slots immediately before and after slot.
func (s TimeSlot) Neighbors() []TimeSlot {
	neighbors := make([]TimeSlot, 0, 2)
	if s.Index > 0 {
		neighbors = append(neighbors, TeachingDay[s.Index-1])
	}
	if s.Index >= 0 && s.Index < len(TeachingDay)-1 {
		neighbors = append(neighbors, TeachingDay[s.Index+1])
	}
	return neighbors
}
