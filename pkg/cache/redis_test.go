package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "timetable:catalog:subject:s1", Key("catalog", "subject", "s1"))
	assert.Equal(t, "timetable:", Key())
}
