// Package dumprow decomposes the untyped string tuples a dumplexer.Lexer
// emits into the three domain row shapes the dump files carry: category,
// categorylinks and page rows.
package dumprow

import (
	"strconv"

	"github.com/proprietary/wikidice/internal/dumplexer"
	"github.com/proprietary/wikidice/internal/types"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// Strategy decomposes one untyped row tuple into a domain row T. Offset is
// the row's approximate byte position, carried only for diagnostics in a
// MalformedRowError.
type Strategy[T any] interface {
	TableName() string
	Decode(cols []string, offset int64) (T, error)
}

// Parser wraps a dumplexer.Lexer with a Strategy, producing typed rows
// instead of raw string tuples. Not safe for concurrent use, same as the
// Lexer it wraps.
type Parser[T any] struct {
	lex      *dumplexer.Lexer
	strategy Strategy[T]
}

// New builds a Parser over src, already positioned by the caller (SkipHeader
// not yet called).
func New[T any](src dumplexer.ByteSource, strategy Strategy[T]) *Parser[T] {
	return &Parser[T]{
		lex:      dumplexer.New(src, strategy.TableName()),
		strategy: strategy,
	}
}

// WithStopAt forwards to the underlying Lexer.
func (p *Parser[T]) WithStopAt(offset int64) *Parser[T] {
	p.lex.WithStopAt(offset)
	return p
}

// SkipHeader forwards to the underlying Lexer.
func (p *Parser[T]) SkipHeader() error {
	return p.lex.SkipHeader()
}

// Next decodes the next row, or returns (zero, nil, false) at end of
// stream. A decomposition failure (wrong column count, unparseable
// numeric column, unrecognized enum literal) is fatal: the caller should
// abort the worker, per spec §4.4.
func (p *Parser[T]) Next(offset int64) (T, bool, error) {
	var zero T
	cols, err := p.lex.Next()
	if err != nil {
		return zero, false, err
	}
	if cols == nil {
		return zero, false, nil
	}
	row, err := p.strategy.Decode(cols, offset)
	if err != nil {
		return zero, false, err
	}
	return row, true, nil
}

// CategoryStrategy decodes rows of the `category` table: 5 columns,
// (category_id, category_name, page_count, subcategory_count, ...).
type CategoryStrategy struct{}

func (CategoryStrategy) TableName() string { return "category" }

func (CategoryStrategy) Decode(cols []string, offset int64) (types.CategoryRow, error) {
	if len(cols) != 5 {
		return types.CategoryRow{}, wikierrors.NewMalformedRow("category", offset, cols, "expected 5 columns")
	}
	id, err := strconv.ParseUint(cols[0], 10, 64)
	if err != nil {
		return types.CategoryRow{}, wikierrors.NewMalformedRow("category", offset, cols, "column 0 (category_id) is not a u64: "+err.Error())
	}
	pageCount, err := strconv.ParseInt(cols[2], 10, 32)
	if err != nil {
		return types.CategoryRow{}, wikierrors.NewMalformedRow("category", offset, cols, "column 2 (page_count) is not an i32: "+err.Error())
	}
	subcatCount, err := strconv.ParseInt(cols[3], 10, 32)
	if err != nil {
		return types.CategoryRow{}, wikierrors.NewMalformedRow("category", offset, cols, "column 3 (subcategory_count) is not an i32: "+err.Error())
	}
	return types.CategoryRow{
		CategoryId:       types.CategoryId(id),
		CategoryName:     cols[1],
		PageCount:        int32(pageCount),
		SubcategoryCount: int32(subcatCount),
	}, nil
}

// CategoryLinksStrategy decodes rows of the `categorylinks` table: 7
// columns, (page_id, category_name, ..., ..., ..., ..., link_type).
type CategoryLinksStrategy struct{}

func (CategoryLinksStrategy) TableName() string { return "categorylinks" }

func (CategoryLinksStrategy) Decode(cols []string, offset int64) (types.CategoryLinksRow, error) {
	if len(cols) != 7 {
		return types.CategoryLinksRow{}, wikierrors.NewMalformedRow("categorylinks", offset, cols, "expected 7 columns")
	}
	id, err := strconv.ParseUint(cols[0], 10, 64)
	if err != nil {
		return types.CategoryLinksRow{}, wikierrors.NewMalformedRow("categorylinks", offset, cols, "column 0 (page_id) is not a u64: "+err.Error())
	}
	lt, err := types.ParseLinkType(cols[6])
	if err != nil {
		return types.CategoryLinksRow{}, wikierrors.NewMalformedRow("categorylinks", offset, cols, "column 6 (link type): "+err.Error())
	}
	return types.CategoryLinksRow{
		PageId:       types.PageId(id),
		CategoryName: cols[1],
		LinkType:     lt,
	}, nil
}

// PageStrategy decodes rows of the `page` table: 12 columns,
// (page_id, namespace, page_title, is_redirect, ...).
type PageStrategy struct{}

func (PageStrategy) TableName() string { return "page" }

func (PageStrategy) Decode(cols []string, offset int64) (types.PageRow, error) {
	if len(cols) != 12 {
		return types.PageRow{}, wikierrors.NewMalformedRow("page", offset, cols, "expected 12 columns")
	}
	id, err := strconv.ParseUint(cols[0], 10, 64)
	if err != nil {
		return types.PageRow{}, wikierrors.NewMalformedRow("page", offset, cols, "column 0 (page_id) is not a u64: "+err.Error())
	}
	var isRedirect bool
	switch cols[3] {
	case "0":
		isRedirect = false
	case "1":
		isRedirect = true
	default:
		return types.PageRow{}, wikierrors.NewMalformedRow("page", offset, cols, "column 3 (is_redirect) must be \"0\" or \"1\", got "+strconv.Quote(cols[3]))
	}
	return types.PageRow{
		PageId:     types.PageId(id),
		PageTitle:  cols[2],
		IsRedirect: isRedirect,
	}, nil
}
