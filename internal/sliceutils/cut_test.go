package sliceutils_test

import (
	"testing"

	"github.com/habiliai/oursgpt/internal/sliceutils"
	"github.com/stretchr/testify/assert"
)

func TestCut(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{2, 3}, sliceutils.Cut(s, 1, 3))
	assert.Equal(t, []int{4, 5}, sliceutils.Cut(s, -2, 10))
	assert.Equal(t, []int{1, 2, 3, 4}, sliceutils.Cut(s, 0, -1))
	assert.Empty(t, sliceutils.Cut([]int{}, 0, 3))
}

func TestPrependCapped(t *testing.T) {
	t.Run("unbounded", func(t *testing.T) {
		assert.Equal(t, []string{"c", "b", "a"}, sliceutils.PrependCapped([]string{"b", "a"}, "c", 0))
	})

	t.Run("drops the oldest entries", func(t *testing.T) {
		s := []int{3, 2, 1}
		res := sliceutils.PrependCapped(s, 4, 3)
		assert.Equal(t, []int{4, 3, 2}, res)
		assert.Equal(t, []int{3, 2, 1}, s)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, []int{1}, sliceutils.PrependCapped(nil, 1, 5))
	})
}
