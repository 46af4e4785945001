package sharedpv

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestIdUnique(t *testing.T) {
	seen := map[Id]bool{}
	for i := 0; i < 4096; i += 1 {
		id := NewId()
		assert.Equal(t, seen[id], false)
		seen[id] = true
	}
}

func TestIdString(t *testing.T) {
	id := NewId()
	idStr := id.String()

	assert.Equal(t, len(idStr), 36)
	parts := strings.Split(idStr, "-")
	assert.Equal(t, len(parts), 5)
	assert.Equal(t, len(parts[0]), 8)
	assert.Equal(t, len(parts[1]), 4)
	assert.Equal(t, len(parts[2]), 4)
	assert.Equal(t, len(parts[3]), 4)
	assert.Equal(t, len(parts[4]), 12)
}
