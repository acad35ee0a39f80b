package dumplexer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is a minimal ByteSource backed by an in-memory buffer, for
// lexer tests that don't need RangedByteStream's file semantics.
type memSource struct {
	data []byte
	pos  int64
}

func (m *memSource) ReadByte() (byte, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	b := m.data[m.pos]
	m.pos++
	return b, nil
}

func (m *memSource) Pos() int64 { return m.pos }

func newLexer(t *testing.T, table, contents string) *Lexer {
	t.Helper()
	l := New(&memSource{data: []byte(contents)}, table)
	require.NoError(t, l.SkipHeader())
	return l
}

func TestLexer_SingleRowThenNone(t *testing.T) {
	l := newLexer(t, "category", "INSERT INTO `category` VALUES (1,'A',0,0);")
	row, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "A", "0", "0"}, row)

	row, err = l.Next()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestLexer_EscapedQuoteSurvivesInString(t *testing.T) {
	l := newLexer(t, "category", `INSERT INTO `+"`category`"+` VALUES (1,'it\'s',0,0);`)
	row, err := l.Next()
	require.NoError(t, err)
	require.Len(t, row, 4)
	assert.Equal(t, "it's", row[1])
}

func TestLexer_MultipleRowsInOneStatement(t *testing.T) {
	l := newLexer(t, "category", "INSERT INTO `category` VALUES (1,'A',0,0),(2,'B',0,0);")

	row1, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "A", "0", "0"}, row1)

	row2, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "B", "0", "0"}, row2)

	row3, err := l.Next()
	require.NoError(t, err)
	assert.Nil(t, row3)
}

func TestLexer_NullLiteral(t *testing.T) {
	l := newLexer(t, "page", "INSERT INTO `page` VALUES (1,NULL,'title',0);")
	row, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "NULL", "title", "0"}, row)
}

func TestLexer_TruncatedStreamAfterEscapedQuoteReturnsNoneNotError(t *testing.T) {
	// Valid prefix ending in a half-read string literal with an escaped
	// quote inside, then EOF (spec §8 Seed 4).
	l := newLexer(t, "category", `INSERT INTO `+"`category`"+` VALUES (1,'broken\'mid`)
	row, err := l.Next()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestLexer_NewStatementAfterSemicolon(t *testing.T) {
	contents := "INSERT INTO `category` VALUES (1,'A',0,0);\n" +
		"INSERT INTO `category` VALUES (2,'B',0,0);"
	l := newLexer(t, "category", contents)

	row1, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "A", "0", "0"}, row1)

	row2, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "B", "0", "0"}, row2)
}

func writeTempDump(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestSplitOffsets_SmallFileYieldsFewerNonEmptyPartitions(t *testing.T) {
	contents := "INSERT INTO `category` VALUES (1,'A',0,0),(2,'B',0,0);"
	path := writeTempDump(t, contents)

	ranges, err := SplitOffsets(path, "category", 8)
	require.NoError(t, err)
	require.NotEmpty(t, ranges)
	assert.Less(t, len(ranges), 8)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, info.Size(), ranges[len(ranges)-1][1])
	for _, r := range ranges {
		assert.Greater(t, r[1], r[0])
	}
}

func TestSplitOffsets_MultipleHeadersProduceContiguousRanges(t *testing.T) {
	var contents string
	for i := 0; i < 20; i++ {
		contents += "INSERT INTO `categorylinks` VALUES (1,'A',1,1,1,1,'page');\n"
	}
	path := writeTempDump(t, contents)

	ranges, err := SplitOffsets(path, "categorylinks", 4)
	require.NoError(t, err)
	require.NotEmpty(t, ranges)

	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1][1], ranges[i][0], "ranges must be contiguous")
	}
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, info.Size(), ranges[len(ranges)-1][1])
}
