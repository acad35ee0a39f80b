// Package categorytable holds the in-RAM dual-keyed category catalog built
// once from the `category` dump: category_id <-> category_name, read-only
// for the rest of a build.
package categorytable

import "github.com/proprietary/wikidice/internal/types"

// Table is a dual-keyed, read-after-build map of every row in the
// `category` dump. Populated once on a single goroutine before any worker
// starts; thereafter safe for concurrent reads by any number of goroutines
// since nothing mutates it.
type Table struct {
	byId   map[types.CategoryId]types.CategoryRow
	byName map[string]types.CategoryRow
}

// New creates an empty table sized for n rows, to avoid map growth churn
// while ingesting a multi-million-row dump.
func New(sizeHint int) *Table {
	return &Table{
		byId:   make(map[types.CategoryId]types.CategoryRow, sizeHint),
		byName: make(map[string]types.CategoryRow, sizeHint),
	}
}

// Insert adds a row to both indexes. Real dumps carry no duplicate ids or
// names on this column pair; if one is seen, the later insert wins, per
// §4.6 ("insertion order of duplicates is undefined").
func (t *Table) Insert(row types.CategoryRow) {
	t.byId[row.CategoryId] = row
	t.byName[row.CategoryName] = row
}

// FindByID looks up a category row by its id.
func (t *Table) FindByID(id types.CategoryId) (types.CategoryRow, bool) {
	row, ok := t.byId[id]
	return row, ok
}

// FindByName looks up a category row by its name.
func (t *Table) FindByName(name string) (types.CategoryRow, bool) {
	row, ok := t.byName[name]
	return row, ok
}

// Len reports the number of distinct categories held.
func (t *Table) Len() int { return len(t.byId) }

// ForEach iterates every row in unspecified order, per §4.6.
func (t *Table) ForEach(fn func(types.CategoryRow)) {
	for _, row := range t.byId {
		fn(row)
	}
}
