// Package dumpproc splits a dump file into row-aligned byte ranges and
// fans a user function out across them on parallel OS threads, one
// dumprow.Parser per range. It is the only place row-boundary splitting
// and worker fan-out happen; callers never touch dumplexer.SplitOffsets
// directly.
package dumpproc

import (
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/proprietary/wikidice/internal/dumpio"
	"github.com/proprietary/wikidice/internal/dumplexer"
	"github.com/proprietary/wikidice/internal/dumprow"
)

// WorkFunc is invoked once per byte range with a ready-to-use parser
// (SkipHeader already called) and the range's absolute bounds, for
// diagnostics. It must not mutate any state shared with other ranges
// except through its own synchronization.
type WorkFunc[T any] func(p *dumprow.Parser[T], begin, end int64) error

// Threads resolves a user-supplied thread count: 0 means "use hardware
// concurrency", mirroring the builder CLI's --threads flag (spec §6).
func Threads(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// ShardIndex deterministically assigns key to one of nShards buckets via
// xxhash, so a fixed partitioning of work (e.g. category names to
// second-pass compute workers) can be recomputed without a central
// counter or shared queue. An nShards of 1 or less maps every key to 0.
func ShardIndex(key []byte, nShards int) int {
	if nShards <= 1 {
		return 0
	}
	return int(xxhash.Sum64(key) % uint64(nShards))
}

// Run splits filename into up to nThreads row-aligned ranges for table,
// and invokes fn over each range concurrently, one goroutine per range.
// It joins all workers before returning, and the first worker error
// (if any) is returned after every worker has finished — a fatal parser
// error aborts the whole run, per spec §4.5.
func Run[T any](filename, table string, nThreads int, strategy dumprow.Strategy[T], fn WorkFunc[T]) error {
	ranges, err := dumplexer.SplitOffsets(filename, table, Threads(nThreads))
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, rng := range ranges {
		begin, end := rng[0], rng[1]
		g.Go(func() error {
			stream, err := dumpio.Open(filename, begin, end)
			if err != nil {
				return err
			}
			defer stream.Close()

			parser := dumprow.New[T](stream, strategy)
			parser.WithStopAt(end)
			if err := parser.SkipHeader(); err != nil {
				return err
			}
			return fn(parser, begin, end)
		})
	}
	return g.Wait()
}

// Collect is a convenience over Run that decodes every row of every range
// into a single slice via a mutex-free per-worker accumulation, merged
// after all workers join. Prefer Run directly when the caller already has
// its own concurrent sink (e.g. a KV store batch writer).
func Collect[T any](filename, table string, nThreads int, strategy dumprow.Strategy[T]) ([]T, error) {
	type partial struct {
		rows []T
	}
	ranges, err := dumplexer.SplitOffsets(filename, table, Threads(nThreads))
	if err != nil {
		return nil, err
	}
	results := make([]partial, len(ranges))

	var g errgroup.Group
	for i, rng := range ranges {
		i, begin, end := i, rng[0], rng[1]
		g.Go(func() error {
			stream, err := dumpio.Open(filename, begin, end)
			if err != nil {
				return err
			}
			defer stream.Close()

			parser := dumprow.New[T](stream, strategy)
			parser.WithStopAt(end)
			if err := parser.SkipHeader(); err != nil {
				return err
			}
			var rows []T
			for {
				row, ok, err := parser.Next(begin)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				rows = append(rows, row)
			}
			results[i] = partial{rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, p := range results {
		total += len(p.rows)
	}
	out := make([]T, 0, total)
	for _, p := range results {
		out = append(out, p.rows...)
	}
	return out, nil
}
