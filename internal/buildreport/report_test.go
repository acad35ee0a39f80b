package buildreport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTOML_RoundTrips(t *testing.T) {
	r := &Report{
		CategoryRows:          10,
		PageRowsImported:      100,
		PageRowsSkipped:       2,
		CategoryLinksRows:     50,
		CategoryLinksDangling: 3,
		SubcategoriesPruned:   1,
		CategoriesIndexed:     9,
		Threads:               4,
		ImportDuration:        2 * time.Second,
		SecondPassDuration:    time.Second,
	}
	path := filepath.Join(t.TempDir(), "build_report.toml")
	require.NoError(t, r.WriteTOML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, toml.Unmarshal(data, &got))
	assert.Equal(t, *r, got)
}

func TestString_IncludesCounts(t *testing.T) {
	r := &Report{CategoryRows: 1, CategoriesIndexed: 1}
	s := r.String()
	assert.Contains(t, s, "categories=1")
	assert.Contains(t, s, "indexed=1")
}
