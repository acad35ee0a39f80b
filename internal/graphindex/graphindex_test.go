package graphindex

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/proprietary/wikidice/internal/categorytable"
	"github.com/proprietary/wikidice/internal/pagetable"
	"github.com/proprietary/wikidice/internal/types"
)

// TestMain ensures the second pass's per-shard errgroup workers
// (computeAllWeights) never outlive RunSecondPass.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

// buildSeed1 constructs the spec §8 "Seed 1" fixture: categories A, B, C;
// A has two pages and subcategory B; B has three pages; C is all-file
// (no pages, no subcategories) and is referenced from nowhere.
func buildSeed1(t *testing.T) *Writer {
	t.Helper()
	dir := t.TempDir()

	catTable := categorytable.New(3)
	catTable.Insert(types.CategoryRow{CategoryId: 2, CategoryName: "A"})
	catTable.Insert(types.CategoryRow{CategoryId: 3, CategoryName: "B"})
	catTable.Insert(types.CategoryRow{CategoryId: 4, CategoryName: "C"})

	pages, err := pagetable.Open(filepath.Join(dir, "pagetable"))
	require.NoError(t, err)
	require.NoError(t, pages.Put(100, "B")) // B's page id resolves subcat 100 -> category B
	t.Cleanup(func() { pages.Close(true) })

	w, err := NewWriter(filepath.Join(dir, "index"), catTable)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	rows := []types.CategoryLinksRow{
		{PageId: 10, CategoryName: "A", LinkType: types.LinkPage},
		{PageId: 11, CategoryName: "A", LinkType: types.LinkPage},
		{PageId: 100, CategoryName: "A", LinkType: types.LinkSubcat},
		{PageId: 20, CategoryName: "B", LinkType: types.LinkPage},
		{PageId: 21, CategoryName: "B", LinkType: types.LinkPage},
		{PageId: 22, CategoryName: "B", LinkType: types.LinkPage},
		{PageId: 30, CategoryName: "C", LinkType: types.LinkFile},
	}
	require.NoError(t, w.ImportCategorylinksRows(rows, pages, catTable))
	require.NoError(t, w.RunSecondPass(2))
	return w
}

func TestSeed1_RecordsAfterBuild(t *testing.T) {
	w := buildSeed1(t)

	recA, ok, err := w.get("A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []types.PageId{10, 11}, recA.Pages)
	assert.Equal(t, []types.CategoryId{3}, recA.Subcategories)

	recB, ok, err := w.get("B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []types.PageId{20, 21, 22}, recB.Pages)
	assert.Empty(t, recB.Subcategories)

	recC, ok, err := w.get("C")
	require.NoError(t, err)
	assert.False(t, ok, "an all-FILE category gets no record: FILE-type links are never stored (I3/P2)")
	assert.Nil(t, recC)
}

func TestSeed1_WeightAtDepthSaturates(t *testing.T) {
	w := buildSeed1(t)
	recA, ok, err := w.get("A")
	require.NoError(t, err)
	require.True(t, ok)

	assert.EqualValues(t, 2, recA.WeightAtDepth(0))
	assert.EqualValues(t, 5, recA.WeightAtDepth(1))
	assert.EqualValues(t, 5, recA.WeightAtDepth(10))
}

func TestSeed1_PickAtDepthZeroIgnoresSubcategories(t *testing.T) {
	w := buildSeed1(t)
	// A real deployment never opens a reader against a path a writer
	// still holds open; tests drive the pick logic directly through the
	// writer's embedded store instead of calling OpenReader on the same
	// directory.
	rng := rand.New(rand.NewSource(1))
	seen := map[types.PageId]bool{}
	for i := 0; i < 200; i++ {
		page, ok, pickErr := (&Reader{store: w.store}).PickAtDepth("A", 0, rng)
		require.NoError(t, pickErr)
		require.True(t, ok)
		seen[page] = true
	}
	assert.Len(t, seen, 2)
	assert.True(t, seen[10])
	assert.True(t, seen[11])
}

func TestSeed1_PickAtDepthOneCoversAllFiveArticles(t *testing.T) {
	w := buildSeed1(t)
	r := &Reader{store: w.store}

	rng := rand.New(rand.NewSource(2))
	seen := map[types.PageId]bool{}
	for i := 0; i < 500; i++ {
		page, ok, err := r.PickAtDepth("A", 1, rng)
		require.NoError(t, err)
		require.True(t, ok)
		seen[page] = true
	}
	assert.Len(t, seen, 5)
	for _, id := range []types.PageId{10, 11, 20, 21, 22} {
		assert.True(t, seen[id], "expected page %d to be reachable", id)
	}
}

func TestSeed1_PickAtDepthEmptyCategoryReturnsNotOK(t *testing.T) {
	w := buildSeed1(t)
	r := &Reader{store: w.store}
	rng := rand.New(rand.NewSource(3))
	_, ok, err := r.PickAtDepth("C", 0, rng)
	require.NoError(t, err)
	assert.False(t, ok, "B3: empty pages at depth 0 must report ok=false")
}

func TestSeed1_DerivationStartsWithRootCategory(t *testing.T) {
	w := buildSeed1(t)
	r := &Reader{store: w.store}
	rng := rand.New(rand.NewSource(4))
	_, derivation, ok, err := r.PickAtDepthAndShowDerivation("A", 1, rng)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, derivation)
	assert.Equal(t, "A", derivation[0])
}

// buildSeed2 constructs the spec §8 "Seed 2" cycle fixture: A has
// subcategory B, B has subcategory A, each has one page.
func buildSeed2(t *testing.T) *Writer {
	t.Helper()
	dir := t.TempDir()

	catTable := categorytable.New(2)
	catTable.Insert(types.CategoryRow{CategoryId: 2, CategoryName: "A"})
	catTable.Insert(types.CategoryRow{CategoryId: 3, CategoryName: "B"})

	pages, err := pagetable.Open(filepath.Join(dir, "pagetable"))
	require.NoError(t, err)
	require.NoError(t, pages.Put(200, "A"))
	require.NoError(t, pages.Put(300, "B"))
	t.Cleanup(func() { pages.Close(true) })

	w, err := NewWriter(filepath.Join(dir, "index"), catTable)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	rows := []types.CategoryLinksRow{
		{PageId: 1, CategoryName: "A", LinkType: types.LinkPage},
		{PageId: 300, CategoryName: "A", LinkType: types.LinkSubcat}, // A -> B
		{PageId: 2, CategoryName: "B", LinkType: types.LinkPage},
		{PageId: 200, CategoryName: "B", LinkType: types.LinkSubcat}, // B -> A
	}
	require.NoError(t, w.ImportCategorylinksRows(rows, pages, catTable))
	require.NoError(t, w.RunSecondPass(2))
	return w
}

func TestSeed2_CycleWeightsSaturateAtTwo(t *testing.T) {
	w := buildSeed2(t)
	recA, ok, err := w.get("A")
	require.NoError(t, err)
	require.True(t, ok)

	assert.EqualValues(t, 1, recA.WeightAtDepth(0))
	assert.EqualValues(t, 2, recA.WeightAtDepth(1))
	assert.EqualValues(t, 2, recA.WeightAtDepth(5), "visited-set BFS must prevent cycle re-entry")
}

func TestSearchCategories_PrefixAndLimits(t *testing.T) {
	dir := t.TempDir()
	catTable := categorytable.New(0)
	w, err := NewWriter(filepath.Join(dir, "index"), catTable)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	pages, err := pagetable.Open(filepath.Join(dir, "pagetable"))
	require.NoError(t, err)
	t.Cleanup(func() { pages.Close(true) })

	rows := []types.CategoryLinksRow{
		{PageId: 1, CategoryName: "Animals", LinkType: types.LinkPage},
		{PageId: 2, CategoryName: "Animal_rights", LinkType: types.LinkPage},
		{PageId: 3, CategoryName: "Anime", LinkType: types.LinkPage},
		{PageId: 4, CategoryName: "Arts", LinkType: types.LinkPage},
	}
	require.NoError(t, w.ImportCategorylinksRows(rows, pages, catTable))

	r := &Reader{store: w.store}
	got, err := r.SearchCategories("Ani", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, name := range got {
		assert.Regexp(t, "^Ani", name)
	}

	empty, err := r.SearchCategories(string(make([]byte, maxPrefixLen+1)), 10)
	require.NoError(t, err)
	assert.Empty(t, empty, "B4: prefixes longer than 1000 bytes yield an empty result")

	zero, err := r.SearchCategories("Ani", 0)
	require.NoError(t, err)
	assert.Empty(t, zero, "requested_count == 0 means zero results, not the 100-result cap")

	capped, err := r.SearchCategories("Ani", 1000)
	require.NoError(t, err)
	assert.Len(t, capped, 3, "over-cap requests are clamped to maxAutocompleteResults, not rejected")
}
