package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTimeSlot(t *testing.T) {
	slot, ok := LookupTimeSlot("9:00")
	require.True(t, ok)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, "10:00", slot.EndTime)

	slot, ok = LookupTimeSlot("13:00:00")
	require.True(t, ok)
	assert.Equal(t, 3, slot.Index)

	_, ok = LookupTimeSlot("12:00")
	assert.False(t, ok, "lunch is not a teaching slot")
	_, ok = LookupTimeSlot("banana")
	assert.False(t, ok)
}

func TestTimeSlotNeighbors(t *testing.T) {
	first, _ := LookupTimeSlot("09:00")
	assert.Equal(t, []TimeSlot{TeachingDay[1]}, first.Neighbors())

	beforeLunch, _ := LookupTimeSlot("11:00")
	assert.Equal(t, []TimeSlot{TeachingDay[1], TeachingDay[3]}, beforeLunch.Neighbors())

	last, _ := LookupTimeSlot("15:00")
	assert.Equal(t, []TimeSlot{TeachingDay[4]}, last.Neighbors())
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Monday", DayName(1))
	assert.Equal(t, "Sunday", DayName(7))
	assert.Equal(t, "day 9", DayName(9))
	assert.False(t, ValidDay(0))
}
