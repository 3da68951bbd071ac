package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	p := Paginate(all, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Items)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 3, p.TotalPages)

	last := Paginate(all, 3, 2)
	assert.Equal(t, []int{5}, last.Items)

	past := Paginate(all, 9, 2)
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)

	def := Paginate(all, 0, 0)
	assert.Equal(t, 1, def.Page)
	assert.Equal(t, 20, def.Limit)
	assert.Equal(t, all, def.Items)

	empty := Paginate([]int(nil), 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Empty(t, empty.Items)
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	p := Paginate([]int{1, 2, 3}, 461168601842738792, 20)
	assert.Empty(t, p.Items)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 1, p.TotalPages)
}
