package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Unique([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, Unique[int](nil))
}

func TestMapFilter(t *testing.T) {
	up := Map([]string{"a", "b"}, strings.ToUpper)
	assert.Equal(t, []string{"A", "B"}, up)

	even := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4}, even)
}

func TestContainsAny(t *testing.T) {
	assert.True(t, Contains([]int{1, 2}, 2))
	assert.False(t, Contains([]int{1, 2}, 3))
	assert.True(t, Any([]int{1, 2}, func(n int) bool { return n > 1 }))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(30, 0, 10))
	assert.Equal(t, 5, Clamp(5, 0, 10))
}

func TestBufferPool(t *testing.T) {
	b := GetBuffer()
	b.WriteString("x")
	PutBuffer(b)

	b = GetBuffer()
	assert.Zero(t, b.Len())
	PutBuffer(b)
}
