package graphindex

import (
	"sync/atomic"

	"github.com/linxGnu/grocksdb"
	"golang.org/x/sync/errgroup"

	"github.com/proprietary/wikidice/internal/catrecord"
	"github.com/proprietary/wikidice/internal/categorytable"
	"github.com/proprietary/wikidice/internal/dumpproc"
	"github.com/proprietary/wikidice/internal/dumprow"
	"github.com/proprietary/wikidice/internal/pagetable"
	"github.com/proprietary/wikidice/internal/types"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// Writer builds the persistent category graph index. It exclusively owns
// the store during a build; no concurrent reader may open the same path
// (§3 Ownership).
type Writer struct {
	*store

	categoryLinksRows     atomic.Int64
	categoryLinksDangling atomic.Int64
	subcategoriesPruned   atomic.Int64
	categoriesIndexed     atomic.Int64
}

// Stats returns the counters buildreport.Report needs: total categorylinks
// rows seen, how many were dropped as dangling references (I1/I5,
// MissingReference), how many subcategory references
// pruneDanglingSubcategories removed, and how many categories
// computeAllWeights indexed.
func (w *Writer) Stats() (categoryLinksRows, categoryLinksDangling, subcategoriesPruned, categoriesIndexed int64) {
	return w.categoryLinksRows.Load(), w.categoryLinksDangling.Load(), w.subcategoriesPruned.Load(), w.categoriesIndexed.Load()
}

// NewWriter opens (creating if necessary) the index at dbPath and
// populates category_id_to_name from catTable — §4.10: "Populated once
// from the InMemoryCategoryTable at writer construction; compacted
// before ingest begins."
func NewWriter(dbPath string, catTable *categorytable.Table) (*Writer, error) {
	s, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	w := &Writer{store: s}
	if err := w.importCategoryTable(catTable); err != nil {
		s.close()
		return nil, err
	}
	if err := w.db.CompactRangeCF(w.idToName, grocksdb.Range{}); err != nil {
		s.close()
		return nil, wikierrors.NewStoreFailure("graphindex.NewWriter:compact", err)
	}
	return w, nil
}

func (w *Writer) importCategoryTable(catTable *categorytable.Table) error {
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()
	catTable.ForEach(func(row types.CategoryRow) {
		batch.PutCF(w.idToName, idToNameKey(row.CategoryId), []byte(row.CategoryName))
	})
	if err := w.db.Write(w.wo, batch); err != nil {
		return wikierrors.NewStoreFailure("graphindex.importCategoryTable", err)
	}
	return nil
}

// ImportCategoryRow stages a single category_id -> category_name mapping.
// Exposed for callers that stream category rows one at a time instead of
// through an already-built categorytable.Table.
func (w *Writer) ImportCategoryRow(row types.CategoryRow) error {
	if err := w.db.PutCF(w.wo, w.idToName, idToNameKey(row.CategoryId), []byte(row.CategoryName)); err != nil {
		return wikierrors.NewStoreFailure("graphindex.ImportCategoryRow", err)
	}
	return nil
}

// addPage stages a merge contributing a single page id to categoryName's
// record. Not idempotent: a duplicate categorylinks row duplicates the
// page id (§4.10).
func (w *Writer) addPage(batch *grocksdb.WriteBatch, categoryName string, pageID types.PageId) {
	op := &catrecord.Record{Pages: []types.PageId{pageID}}
	batch.MergeCF(w.categoryLinks, []byte(categoryName), catrecord.Encode(op))
}

// addSubcategory stages a merge contributing a single subcategory id.
func (w *Writer) addSubcategory(batch *grocksdb.WriteBatch, categoryName string, subID types.CategoryId) {
	op := &catrecord.Record{Subcategories: []types.CategoryId{subID}}
	batch.MergeCF(w.categoryLinks, []byte(categoryName), catrecord.Encode(op))
}

// importCategorylinksRow dispatches one categorylinks row per §4.10:
// FILE is ignored (I3), PAGE contributes a page id directly, SUBCAT must
// resolve its child page_id to a CategoryId via pageTable + catTable
// first and is dropped silently (MissingReference) if that fails.
func (w *Writer) importCategorylinksRow(batch *grocksdb.WriteBatch, row types.CategoryLinksRow, pages *pagetable.Table, catTable *categorytable.Table) error {
	w.categoryLinksRows.Add(1)
	switch row.LinkType {
	case types.LinkFile:
		return nil
	case types.LinkPage:
		w.addPage(batch, row.CategoryName, row.PageId)
		return nil
	case types.LinkSubcat:
		title, ok, err := pages.Get(row.PageId)
		if err != nil {
			return err
		}
		if !ok {
			w.categoryLinksDangling.Add(1)
			return nil // dangling: no such non-redirect page (I1/MissingReference)
		}
		catRow, ok := catTable.FindByName(title)
		if !ok {
			w.categoryLinksDangling.Add(1)
			return nil // dangling: page exists but isn't a known category
		}
		w.addSubcategory(batch, row.CategoryName, catRow.CategoryId)
		return nil
	default:
		return nil
	}
}

// ImportCategorylinksRows applies importCategorylinksRow to each row,
// accumulating into a single write batch committed once, per §4.10.
func (w *Writer) ImportCategorylinksRows(rows []types.CategoryLinksRow, pages *pagetable.Table, catTable *categorytable.Table) error {
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()
	for _, row := range rows {
		if err := w.importCategorylinksRow(batch, row, pages, catTable); err != nil {
			return err
		}
	}
	if err := w.db.Write(w.wo, batch); err != nil {
		return wikierrors.NewStoreFailure("graphindex.ImportCategorylinksRows", err)
	}
	return nil
}

// ImportCategoryLinksDump ingests dumpPath's categorylinks rows in
// parallel across nThreads workers. Each worker owns its byte range and
// commits its own batches directly — the categorylinks column family's
// merge operator reconciles concurrent writers to the same key (§5:
// "many producers, merge operator resolves conflicts"), so no single
// consumer goroutine or MPSC queue is required for correctness.
func (w *Writer) ImportCategoryLinksDump(dumpPath string, pages *pagetable.Table, catTable *categorytable.Table, nThreads int) error {
	const flushEvery = 5000
	return dumpproc.Run(dumpPath, "categorylinks", nThreads, dumprow.CategoryLinksStrategy{}, func(p *dumprow.Parser[types.CategoryLinksRow], begin, end int64) error {
		batch := grocksdb.NewWriteBatch()
		defer batch.Destroy()
		staged := 0
		for {
			row, ok, err := p.Next(begin)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if err := w.importCategorylinksRow(batch, row, pages, catTable); err != nil {
				return err
			}
			staged++
			if staged >= flushEvery {
				if err := w.db.Write(w.wo, batch); err != nil {
					return wikierrors.NewStoreFailure("graphindex.ImportCategoryLinksDump", err)
				}
				batch.Clear()
				staged = 0
			}
		}
		if staged > 0 {
			if err := w.db.Write(w.wo, batch); err != nil {
				return wikierrors.NewStoreFailure("graphindex.ImportCategoryLinksDump", err)
			}
		}
		return nil
	})
}

// RunSecondPass orchestrates §4.10's post-ingest pass: prune dangling
// subcategory references (I5), compute each category's depth-indexed
// weight vector, flush the write buffer, then force a bottommost-level
// compaction of the categorylinks column family.
func (w *Writer) RunSecondPass(nThreads int) error {
	if err := w.pruneDanglingSubcategories(); err != nil {
		return err
	}
	if err := w.computeAllWeights(nThreads); err != nil {
		return err
	}
	if err := w.db.Flush(grocksdb.NewDefaultFlushOptions()); err != nil {
		return wikierrors.NewStoreFailure("graphindex.RunSecondPass:flush", err)
	}
	if err := w.db.CompactRangeCF(w.categoryLinks, grocksdb.Range{}); err != nil {
		return wikierrors.NewStoreFailure("graphindex.RunSecondPass:compact", err)
	}
	return nil
}

// pruneDanglingSubcategories implements step 1 of the second pass:
// iterate every record, keep only subcategory ids whose name resolves
// and whose own record exists, and rewrite any record that changed.
func (w *Writer) pruneDanglingSubcategories() error {
	type rewrite struct {
		key []byte
		rec *catrecord.Record
	}
	var pending []rewrite

	it := w.db.NewIteratorCF(w.ro, w.categoryLinks)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keySlice := it.Key()
		key := append([]byte(nil), keySlice.Data()...)
		keySlice.Free()

		valSlice := it.Value()
		rec, err := catrecord.Decode(valSlice.Data())
		valSlice.Free()
		if err != nil {
			return wikierrors.NewStoreFailure("graphindex.pruneDanglingSubcategories:decode", err)
		}

		kept := rec.Subcategories[:0:0]
		changed := false
		for _, subID := range rec.Subcategories {
			name, ok, err := w.resolveName(subID)
			if err != nil {
				return err
			}
			if ok {
				if _, exists, err := w.get(name); err != nil {
					return err
				} else if exists {
					kept = append(kept, subID)
					continue
				}
			}
			changed = true
			w.subcategoriesPruned.Add(1)
		}
		if changed {
			rec.Subcategories = kept
			pending = append(pending, rewrite{key: key, rec: rec})
		}
	}
	if err := it.Err(); err != nil {
		return wikierrors.NewStoreFailure("graphindex.pruneDanglingSubcategories:iterate", err)
	}

	if len(pending) == 0 {
		return nil
	}
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()
	for _, r := range pending {
		batch.PutCF(w.categoryLinks, r.key, catrecord.Encode(r.rec))
	}
	if err := w.db.Write(w.wo, batch); err != nil {
		return wikierrors.NewStoreFailure("graphindex.pruneDanglingSubcategories:write", err)
	}
	return nil
}

// computeAllWeights implements step 2 of the second pass: build and
// store a weight vector per category. §4.10 describes (n_threads - 1)
// compute workers feeding a single writer thread through a bounded
// queue to avoid contention on the KV store; this instead statically
// partitions categories across (n_threads - 1) shards by xxhash of the
// category name, so each shard worker owns its keys for the whole pass
// and commits its own write batch — deterministic partitioning without
// a shared queue or a central counter.
func (w *Writer) computeAllWeights(nThreads int) error {
	keys, err := w.allCategoryKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	w.categoriesIndexed.Add(int64(len(keys)))

	n := dumpproc.Threads(nThreads)
	workers := n - 1
	if workers < 1 {
		workers = 1
	}

	shards := make([][][]byte, workers)
	for _, k := range keys {
		idx := dumpproc.ShardIndex(k, workers)
		shards[idx] = append(shards[idx], k)
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		shard := shards[i]
		g.Go(func() error {
			return w.computeWeightsForShard(shard)
		})
	}
	return g.Wait()
}

func (w *Writer) computeWeightsForShard(shard [][]byte) error {
	if len(shard) == 0 {
		return nil
	}
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()
	const flushEvery = 2000
	staged := 0
	for _, key := range shard {
		weights, err := w.buildWeights(string(key))
		if err != nil {
			return err
		}
		rec, ok, err := w.get(string(key))
		if err != nil {
			return err
		}
		if !ok {
			continue // record pruned away between listing and computing; skip
		}
		rec.SetWeights(weights)
		batch.PutCF(w.categoryLinks, key, catrecord.Encode(rec))
		staged++
		if staged >= flushEvery {
			if err := w.db.Write(w.wo, batch); err != nil {
				return wikierrors.NewStoreFailure("graphindex.computeAllWeights", err)
			}
			batch.Clear()
			staged = 0
		}
	}
	if staged > 0 {
		if err := w.db.Write(w.wo, batch); err != nil {
			return wikierrors.NewStoreFailure("graphindex.computeAllWeights", err)
		}
	}
	return nil
}

func (w *Writer) allCategoryKeys() ([][]byte, error) {
	var keys [][]byte
	it := w.db.NewIteratorCF(w.ro, w.categoryLinks)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		slice := it.Key()
		keys = append(keys, append([]byte(nil), slice.Data()...))
		slice.Free()
	}
	if err := it.Err(); err != nil {
		return nil, wikierrors.NewStoreFailure("graphindex.allCategoryKeys", err)
	}
	return keys, nil
}

// Close releases the writer's database handle.
func (w *Writer) Close() error {
	w.store.close()
	return nil
}
