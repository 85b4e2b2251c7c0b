package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination_Normalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize}, Pagination{}.Normalize())
	assert.Equal(t, Pagination{Page: 3, PageSize: MaxPageSize}, Pagination{Page: 3, PageSize: 1000}.Normalize())
	assert.NoError(t, Pagination{}.Normalize().Validate())
	assert.Error(t, Pagination{Page: 0, PageSize: 10}.Validate())
	assert.Error(t, Pagination{Page: 1, PageSize: 101}.Validate())
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}

	page := Paginate(items, Pagination{Page: 2, PageSize: 2})
	assert.Equal(t, []int{3, 4}, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	last := Paginate(items, Pagination{Page: 3, PageSize: 2})
	assert.Equal(t, []int{5}, last.Items)

	beyond := Paginate(items, Pagination{Page: 9, PageSize: 2})
	assert.Empty(t, beyond.Items)

	empty := Paginate([]int{}, Pagination{})
	assert.Equal(t, 0, empty.TotalPages)
}

func TestParseSortOrder(t *testing.T) {
	t.Parallel()

	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, o)

	o, err = ParseSortOrder("desc")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, o)

	_, err = ParseSortOrder("down")
	assert.Error(t, err)
}

func TestIDs(t *testing.T) {
	t.Parallel()

	_, err := uuid.Parse(NewID())
	assert.NoError(t, err)
	assert.Regexp(t, `^export-[0-9a-f-]{36}$`, GenerateID("export"))
	assert.Len(t, GenerateID(""), 36)
}

//Personal.AI order the ending
