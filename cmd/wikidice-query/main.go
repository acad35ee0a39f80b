// Command wikidice-query serves a single random-pick query against an
// already-built graph index, mirroring the teacher's thin read-path
// CLI commands (cmd/lci's def/refs) but for wikidice's weighted pick.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/proprietary/wikidice/internal/graphindex"
)

func main() {
	app := &cli.App{
		Name:  "wikidice-query",
		Usage: "pick a uniformly-random article reachable from a category within a given subcategory depth",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_path", Usage: "Built graph index directory", Required: true},
			&cli.StringFlag{Name: "category_name", Usage: "Query root category", Required: true},
			&cli.IntFlag{Name: "depth", Usage: "Traversal radius, 0-255", Required: true},
			&cli.BoolFlag{Name: "with_derivation", Usage: "Include the traversal path in the output log"},
		},
		Action: query,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wikidice-query: %v\n", err)
		os.Exit(1)
	}
}

func query(c *cli.Context) error {
	depth := c.Int("depth")
	if depth < 0 || depth > 255 {
		return fmt.Errorf("--depth must be in [0, 255], got %d", depth)
	}

	reader, err := graphindex.OpenReader(c.String("db_path"))
	if err != nil {
		return fmt.Errorf("open graph index: %w", err)
	}
	defer reader.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	categoryName := c.String("category_name")

	if c.Bool("with_derivation") {
		page, derivation, ok, err := reader.PickAtDepthAndShowDerivation(categoryName, uint8(depth), rng)
		if err != nil {
			return fmt.Errorf("pick: %w", err)
		}
		if !ok {
			return fmt.Errorf("no article reachable from %q at depth %d", categoryName, depth)
		}
		fmt.Printf("https://en.wikipedia.org/?curid=%d\n", page)
		fmt.Fprintf(os.Stderr, "derivation: %v\n", derivation)
		return nil
	}

	page, ok, err := reader.PickAtDepth(categoryName, uint8(depth), rng)
	if err != nil {
		return fmt.Errorf("pick: %w", err)
	}
	if !ok {
		return fmt.Errorf("no article reachable from %q at depth %d", categoryName, depth)
	}
	fmt.Printf("https://en.wikipedia.org/?curid=%d\n", page)
	return nil
}
