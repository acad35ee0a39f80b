package categorytable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proprietary/wikidice/internal/types"
)

func TestTable_FindByIDAndName(t *testing.T) {
	tbl := New(0)
	tbl.Insert(types.CategoryRow{CategoryId: 2, CategoryName: "A"})
	tbl.Insert(types.CategoryRow{CategoryId: 3, CategoryName: "B"})

	row, ok := tbl.FindByID(2)
	assert.True(t, ok)
	assert.Equal(t, "A", row.CategoryName)

	row, ok = tbl.FindByName("B")
	assert.True(t, ok)
	assert.EqualValues(t, 3, row.CategoryId)

	_, ok = tbl.FindByID(999)
	assert.False(t, ok)
}

func TestTable_ForEachVisitsEveryRow(t *testing.T) {
	tbl := New(0)
	tbl.Insert(types.CategoryRow{CategoryId: 1, CategoryName: "A"})
	tbl.Insert(types.CategoryRow{CategoryId: 2, CategoryName: "B"})

	seen := map[types.CategoryId]bool{}
	tbl.ForEach(func(row types.CategoryRow) { seen[row.CategoryId] = true })
	assert.Len(t, seen, 2)
	assert.True(t, seen[1])
	assert.True(t, seen[2])
}

func TestTable_Len(t *testing.T) {
	tbl := New(0)
	assert.Equal(t, 0, tbl.Len())
	tbl.Insert(types.CategoryRow{CategoryId: 1, CategoryName: "A"})
	assert.Equal(t, 1, tbl.Len())
}
