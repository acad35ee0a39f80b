// Package buildreport captures end-of-build statistics for a wikidice
// index build and serializes them as TOML, the way the teacher's
// internal/metrics package summarizes an indexing run.
package buildreport

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Report summarizes one builder invocation: how much of each dump was
// ingested, how long each phase took, and what got dropped along the
// way (skipped page rows, dangling categorylinks subcategory rows, and
// subcategory references pruned by the second pass).
type Report struct {
	CategoryRows          int64         `toml:"category_rows"`
	PageRowsImported      int64         `toml:"page_rows_imported"`
	PageRowsSkipped       int64         `toml:"page_rows_skipped"`
	CategoryLinksRows     int64         `toml:"categorylinks_rows"`
	CategoryLinksDangling int64         `toml:"categorylinks_dangling"`
	SubcategoriesPruned   int64         `toml:"subcategories_pruned"`
	CategoriesIndexed     int64         `toml:"categories_indexed"`
	Threads               int           `toml:"threads"`
	ImportDuration        time.Duration `toml:"import_duration"`
	SecondPassDuration    time.Duration `toml:"second_pass_duration"`
}

// WriteTOML serializes r to path as TOML, overwriting any existing file.
func (r *Report) WriteTOML(path string) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("buildreport: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("buildreport: write %s: %w", path, err)
	}
	return nil
}

// String renders a short human-readable summary for stdout/log output.
func (r *Report) String() string {
	return fmt.Sprintf(
		"categories=%d pages_imported=%d pages_skipped=%d categorylinks=%d dangling=%d pruned=%d indexed=%d import=%s second_pass=%s",
		r.CategoryRows, r.PageRowsImported, r.PageRowsSkipped, r.CategoryLinksRows,
		r.CategoryLinksDangling, r.SubcategoriesPruned, r.CategoriesIndexed,
		r.ImportDuration, r.SecondPassDuration,
	)
}
