package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type tree struct {
	left  *counter
	right *counter
}

func TestCreateSelectorMemoizesOnInput(t *testing.T) {
	computed := 0
	selectLeft := CreateSelector(
		func(s *tree) *counter { return s.left },
		func(c *counter) int {
			computed++
			return c.N * 2
		},
	)

	left := &counter{N: 2}
	first := &tree{left: left, right: &counter{}}

	assert.Equal(t, 4, selectLeft(first))
	assert.Equal(t, 4, selectLeft(first))
	assert.Equal(t, 1, computed)

	// A new tree sharing the left branch does not recompute.
	assert.Equal(t, 4, selectLeft(&tree{left: left, right: &counter{N: 9}}))
	assert.Equal(t, 1, computed)

	assert.Equal(t, 6, selectLeft(&tree{left: &counter{N: 3}}))
	assert.Equal(t, 2, computed)
}

func TestCreateSelectorInstancesAreIndependent(t *testing.T) {
	left := CreateSelector(func(s *tree) *counter { return s.left }, func(c *counter) *counter { return c })
	right := CreateSelector(func(s *tree) *counter { return s.right }, func(c *counter) *counter { return c })

	a, b := &counter{N: 1}, &counter{N: 2}
	s1 := &tree{left: a, right: b}
	assert.Same(t, a, left(s1))
	assert.Same(t, b, right(s1))

	s2 := &tree{left: a, right: &counter{N: 3}}
	assert.Same(t, a, left(s2))
	assert.Equal(t, 3, right(s2).N)
}
