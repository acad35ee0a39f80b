// Command wikidice-mcp exposes a built graph index over MCP stdio, the
// embedded-language binding named in spec §6, the same shape as the
// teacher's "lci mcp" subcommand but split into its own small binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/proprietary/wikidice/internal/wikimcp"
)

func main() {
	app := &cli.App{
		Name:  "wikidice-mcp",
		Usage: "serve a built graph index as an MCP tool server over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_path", Usage: "Built graph index directory", Required: true},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wikidice-mcp: %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	srv, err := wikimcp.New(c.String("db_path"))
	if err != nil {
		return fmt.Errorf("open graph index: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Start(ctx)
}
