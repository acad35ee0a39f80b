package pagetable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proprietary/wikidice/internal/types"
)

func TestPutGet_RoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pagetable")
	tbl, err := Open(dir)
	require.NoError(t, err)
	defer tbl.Close(false)

	require.NoError(t, tbl.Put(42, "Animal_rights"))

	title, ok, err := tbl.Get(42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Animal_rights", title)
}

func TestGet_AbsentIdNotFound(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pagetable")
	tbl, err := Open(dir)
	require.NoError(t, err)
	defer tbl.Close(false)

	_, ok, err := tbl.Get(999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuild_SkipsRedirectsEmptyTitlesAndZeroIds(t *testing.T) {
	dumpDir := t.TempDir()
	dumpPath := filepath.Join(dumpDir, "page.sql")
	contents := "INSERT INTO `page` VALUES " +
		"(1,14,'Kept_page',0,0,0.1,'20200101000000','20200101000000',0,10,'wikitext',NULL)," +
		"(2,14,'Redirect_page',1,0,0.1,'20200101000000','20200101000000',0,10,'wikitext',NULL)," +
		"(0,14,'Zero_id_page',0,0,0.1,'20200101000000','20200101000000',0,10,'wikitext',NULL)," +
		"(3,14,'',0,0,0.1,'20200101000000','20200101000000',0,10,'wikitext',NULL);\n"
	require.NoError(t, os.WriteFile(dumpPath, []byte(contents), 0o644))

	dir := filepath.Join(t.TempDir(), "pagetable")
	tbl, err := Open(dir)
	require.NoError(t, err)
	defer tbl.Close(false)

	require.NoError(t, tbl.Build(dumpPath, 2))

	title, ok, err := tbl.Get(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Kept_page", title)

	for _, id := range []types.PageId{2, 0, 3} {
		_, ok, err := tbl.Get(id)
		require.NoError(t, err)
		assert.False(t, ok, "page id %d should not be persisted", id)
	}
}

func TestClose_RemoveDeletesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pagetable")
	tbl, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, tbl.Close(true))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
