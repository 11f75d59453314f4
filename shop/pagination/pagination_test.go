package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}

func TestPaginateMiddlePage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	page := Paginate(items, 3, 2)

	require.Equal(t, []int{4, 5, 6}, page.Items)
	assert.Equal(t, 3, page.Start)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasPrev)
	assert.True(t, page.HasNext)
}

func TestPaginateLastShortPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	page := Paginate(items, 3, 3)

	require.Equal(t, []int{7}, page.Items)
	assert.Equal(t, 6, page.Start)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginateSinglePage(t *testing.T) {
	items := []string{"a", "b"}
	page := Paginate(items, 10, 1)

	require.Equal(t, items, page.Items)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate([]int(nil), 10, 1)

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}
