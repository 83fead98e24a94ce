package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, float32(32), Coalesce(float32(0), 32))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []int{-1, 0, 2}, SortedKeys(map[int]bool{2: true, -1: false, 0: true}))
	assert.Empty(t, SortedKeys(map[string]int{}))
}
