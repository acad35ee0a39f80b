package dumprow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proprietary/wikidice/internal/types"
)

func TestCategoryStrategy_Decode(t *testing.T) {
	row, err := CategoryStrategy{}.Decode([]string{"2", "A", "0", "0", "0"}, 0)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryRow{CategoryId: 2, CategoryName: "A", PageCount: 0, SubcategoryCount: 0}, row)
}

func TestCategoryStrategy_Decode_WrongColumnCountIsFatal(t *testing.T) {
	_, err := CategoryStrategy{}.Decode([]string{"2", "A"}, 0)
	assert.Error(t, err)
	_, err = CategoryStrategy{}.Decode([]string{"2", "A", "0", "0", "0", "extra"}, 0)
	assert.Error(t, err)
}

func TestCategoryLinksStrategy_Decode(t *testing.T) {
	cols := []string{"100", "A", "0", "0", "0", "0", "subcat"}
	row, err := CategoryLinksStrategy{}.Decode(cols, 0)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryLinksRow{PageId: 100, CategoryName: "A", LinkType: types.LinkSubcat}, row)
}

func TestCategoryLinksStrategy_Decode_WrongColumnCountIsFatal(t *testing.T) {
	_, err := CategoryLinksStrategy{}.Decode([]string{"100", "A", "0", "0", "0", "0"}, 0)
	assert.Error(t, err)
	_, err = CategoryLinksStrategy{}.Decode([]string{"100", "A", "0", "0", "0", "0", "subcat", "extra"}, 0)
	assert.Error(t, err)
}

func TestCategoryLinksStrategy_Decode_UnknownLinkTypeIsFatal(t *testing.T) {
	cols := []string{"100", "A", "0", "0", "0", "0", "bogus"}
	_, err := CategoryLinksStrategy{}.Decode(cols, 0)
	assert.Error(t, err)
}

func TestPageStrategy_Decode_NonRedirect(t *testing.T) {
	cols := []string{"100", "0", "B", "0", "", "", "", "", "", "", "", ""}
	row, err := PageStrategy{}.Decode(cols, 0)
	require.NoError(t, err)
	assert.Equal(t, types.PageRow{PageId: 100, PageTitle: "B", IsRedirect: false}, row)
}

func TestPageStrategy_Decode_RedirectFlag(t *testing.T) {
	cols := []string{"100", "0", "B", "1", "", "", "", "", "", "", "", ""}
	row, err := PageStrategy{}.Decode(cols, 0)
	require.NoError(t, err)
	assert.True(t, row.IsRedirect)
}

func TestPageStrategy_Decode_BadRedirectFlagIsFatal(t *testing.T) {
	cols := []string{"100", "0", "B", "maybe", "", "", "", "", "", "", "", ""}
	_, err := PageStrategy{}.Decode(cols, 0)
	assert.Error(t, err)
}

func TestPageStrategy_Decode_WrongColumnCountIsFatal(t *testing.T) {
	_, err := PageStrategy{}.Decode([]string{"100", "0", "B", "1"}, 0)
	assert.Error(t, err)
	cols := []string{"100", "0", "B", "0", "", "", "", "", "", "", "", "", "extra"}
	_, err = PageStrategy{}.Decode(cols, 0)
	assert.Error(t, err)
}
