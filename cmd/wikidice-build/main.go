// Command wikidice-build ingests a category/page/categorylinks SQL dump
// triple and produces a persistent graphindex database, mirroring the
// teacher's cmd/lci indexing driver but for the wikidice index builder.
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"

	"github.com/proprietary/wikidice/internal/buildreport"
	"github.com/proprietary/wikidice/internal/categorytable"
	"github.com/proprietary/wikidice/internal/dumpproc"
	"github.com/proprietary/wikidice/internal/dumprow"
	"github.com/proprietary/wikidice/internal/graphindex"
	"github.com/proprietary/wikidice/internal/pagetable"
	"github.com/proprietary/wikidice/internal/wikiconfig"
)

// resolveDumpFiles expands pattern as a doublestar glob, so a dump split
// into numbered part files (categorylinks.sql.part-*) can be passed as
// one pattern; a plain path with no metacharacters matches itself.
func resolveDumpFiles(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func main() {
	app := &cli.App{
		Name:  "wikidice-build",
		Usage: "build a category-graph weighted-random-pick index from a wiki SQL dump",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a .wikidice.kdl config file"},
			&cli.StringFlag{Name: "category_dump", Usage: "Path to the category table SQL dump", Required: true},
			&cli.StringFlag{Name: "categorylinks_dump", Usage: "Path to the categorylinks table SQL dump", Required: true},
			&cli.StringFlag{Name: "page_dump", Usage: "Path to the page table SQL dump", Required: true},
			&cli.StringFlag{Name: "db_path", Usage: "Output path for the graph index database"},
			&cli.StringFlag{Name: "wikipedia_language_code", Usage: "Wiki language code, checked against the known whitelist", Value: "en"},
			&cli.IntFlag{Name: "threads", Usage: "Worker threads, 0 = use all cores"},
			&cli.BoolFlag{Name: "skip_import", Usage: "Skip the first pass and only recompute weights against an existing db_path"},
			&cli.StringFlag{Name: "report", Usage: "Write a TOML build report to this path"},
		},
		Action: build,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wikidice-build: %v\n", err)
		os.Exit(1)
	}
}

func build(c *cli.Context) error {
	cfg, err := wikiconfig.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := c.String("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("wikipedia_language_code"); v != "" {
		cfg.WikipediaLanguageCode = v
	}
	if v := c.Int("threads"); v != 0 {
		cfg.Threads = v
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required, via --db_path or config")
	}
	if !wikiconfig.IsValidLanguageCode(cfg.WikipediaLanguageCode) {
		return fmt.Errorf("unrecognized --wikipedia_language_code %q", cfg.WikipediaLanguageCode)
	}
	nThreads := dumpproc.Threads(cfg.Threads)
	report := &buildreport.Report{Threads: nThreads}

	pagesDir := cfg.DBPath + ".pagetable"
	pages, err := pagetable.Open(pagesDir)
	if err != nil {
		return fmt.Errorf("open page table: %w", err)
	}
	defer pages.Close(true)

	var writer *graphindex.Writer

	if !c.Bool("skip_import") {
		importStart := time.Now()

		pageFiles, err := resolveDumpFiles(c.String("page_dump"))
		if err != nil {
			return err
		}
		for _, f := range pageFiles {
			if err := pages.Build(f, nThreads); err != nil {
				return fmt.Errorf("build page table from %s: %w", f, err)
			}
		}
		report.PageRowsImported, report.PageRowsSkipped = pages.Stats()

		categoryFiles, err := resolveDumpFiles(c.String("category_dump"))
		if err != nil {
			return err
		}
		catTable := categorytable.New(0)
		for _, f := range categoryFiles {
			catRows, err := dumpproc.Collect(f, "category", nThreads, dumprow.CategoryStrategy{})
			if err != nil {
				return fmt.Errorf("parse category dump %s: %w", f, err)
			}
			for _, row := range catRows {
				catTable.Insert(row)
			}
		}
		report.CategoryRows = int64(catTable.Len())

		writer, err = graphindex.NewWriter(cfg.DBPath, catTable)
		if err != nil {
			return fmt.Errorf("open graph index: %w", err)
		}

		categoryLinksFiles, err := resolveDumpFiles(c.String("categorylinks_dump"))
		if err != nil {
			writer.Close()
			return err
		}
		for _, f := range categoryLinksFiles {
			if err := writer.ImportCategoryLinksDump(f, pages, catTable, nThreads); err != nil {
				writer.Close()
				return fmt.Errorf("import categorylinks dump %s: %w", f, err)
			}
		}
		report.ImportDuration = time.Since(importStart)
		report.CategoryLinksRows, report.CategoryLinksDangling, _, _ = writer.Stats()
	} else {
		writer, err = graphindex.NewWriter(cfg.DBPath, categorytable.New(0))
		if err != nil {
			return fmt.Errorf("open graph index for second pass: %w", err)
		}
	}
	defer writer.Close()

	secondPassStart := time.Now()
	if err := writer.RunSecondPass(nThreads); err != nil {
		return fmt.Errorf("second pass: %w", err)
	}
	report.SecondPassDuration = time.Since(secondPassStart)
	_, _, report.SubcategoriesPruned, report.CategoriesIndexed = writer.Stats()

	if reportPath := c.String("report"); reportPath != "" {
		if err := report.WriteTOML(reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	fmt.Println(report.String())
	return nil
}
