package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, IDLength)
	assert.True(t, IsID(id))

	for _, s := range []string{
		"",
		id[:31],
		id + "0",
		strings.Repeat("g", IDLength),
		strings.Repeat("A", IDLength),
		strings.ToUpper(strings.Repeat("ab", IDLength/2)),
	} {
		assert.False(t, IsID(s), s)
	}
}

func TestFormatTime(t *testing.T) {
	assert.Len(t, FormatTime(Now()), len(TimeLayout))
}
