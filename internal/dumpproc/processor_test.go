package dumpproc

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/proprietary/wikidice/internal/dumprow"
	"github.com/proprietary/wikidice/internal/types"
)

// TestMain ensures the errgroup worker pools Collect/Run spin up leave
// no goroutines running once a test completes.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTempDump(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCollect_AllRowsAcrossRangesRecovered(t *testing.T) {
	var contents string
	for i := 1; i <= 50; i++ {
		contents += "INSERT INTO `category` VALUES (" +
			strconv.Itoa(i) + ",'C" + strconv.Itoa(i) + "',0,0,0);\n"
	}
	path := writeTempDump(t, contents)

	rows, err := Collect[types.CategoryRow](path, "category", 4, dumprow.CategoryStrategy{})
	require.NoError(t, err)
	assert.Len(t, rows, 50)

	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = int(r.CategoryId)
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestShardIndex_DeterministicAndInRange(t *testing.T) {
	const n = 8
	keys := []string{"Physics", "Chemistry", "Biology", "Mathematics", "History"}
	for _, k := range keys {
		idx := ShardIndex([]byte(k), n)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, n)
		assert.Equal(t, idx, ShardIndex([]byte(k), n), "must be stable across calls")
	}
}

func TestShardIndex_SingleShard(t *testing.T) {
	assert.Equal(t, 0, ShardIndex([]byte("anything"), 1))
	assert.Equal(t, 0, ShardIndex([]byte("anything"), 0))
}

func TestShardIndex_SpreadsAcrossShards(t *testing.T) {
	const n = 4
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		seen[ShardIndex([]byte(strconv.Itoa(i)), n)] = true
	}
	assert.Len(t, seen, n, "200 distinct keys should eventually land in every shard")
}
