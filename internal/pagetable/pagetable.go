// Package pagetable implements the ephemeral on-disk page_id -> page_title
// store (C7) used only during a build, to translate a SUBCAT
// categorylinks row's child page_id into the subcategory's own page
// title, which categorytable.Table then resolves to a CategoryId.
package pagetable

import (
	"encoding/binary"
	"os"
	"sync/atomic"

	"github.com/linxGnu/grocksdb"

	"github.com/proprietary/wikidice/internal/dumpproc"
	"github.com/proprietary/wikidice/internal/dumprow"
	"github.com/proprietary/wikidice/internal/types"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// Table is a throwaway RocksDB instance, keyed by 8-byte little-endian
// PageId, valued by the page's title. It exists only for the duration of
// a build and is removed wholesale by Close(true).
type Table struct {
	dir string
	db  *grocksdb.DB
	wo  *grocksdb.WriteOptions
	ro  *grocksdb.ReadOptions

	imported atomic.Int64
	skipped  atomic.Int64
}

// Stats returns the number of page rows persisted by Build so far, and
// the number skipped (redirects, empty titles, zero page ids), for
// buildreport.Report.
func (t *Table) Stats() (imported, skipped int64) {
	return t.imported.Load(), t.skipped.Load()
}

func keyOf(id types.PageId) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(id))
	return buf
}

// Open creates (or reopens) the page table at dir.
func Open(dir string) (*Table, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.IncreaseParallelism(1)
	opts.SetCompression(grocksdb.NoCompression)

	db, err := grocksdb.OpenDb(opts, dir)
	if err != nil {
		return nil, wikierrors.NewStoreFailure("pagetable.Open", err)
	}
	return &Table{
		dir: dir,
		db:  db,
		wo:  grocksdb.NewDefaultWriteOptions(),
		ro:  grocksdb.NewDefaultReadOptions(),
	}, nil
}

// Put stages a single page_id -> title write directly (used by tests and
// small inputs); bulk ingest should prefer Build.
func (t *Table) Put(id types.PageId, title string) error {
	if err := t.db.Put(t.wo, keyOf(id), []byte(title)); err != nil {
		return wikierrors.NewStoreFailure("pagetable.Put", err)
	}
	return nil
}

// Get returns the title of a non-redirect page, or ok=false if it was
// never imported (redirect, empty title, zero id, or simply absent from
// the page dump).
func (t *Table) Get(id types.PageId) (string, bool, error) {
	slice, err := t.db.Get(t.ro, keyOf(id))
	if err != nil {
		return "", false, wikierrors.NewStoreFailure("pagetable.Get", err)
	}
	defer slice.Free()
	if !slice.Exists() {
		return "", false, nil
	}
	return string(slice.Data()), true, nil
}

// Build ingests pageDumpPath in parallel across nThreads workers, each
// writing its own batch of non-redirect, non-empty-title, non-zero-id page
// rows, committed every 10000 rows and at the end of its range. This is the only place
// §3's PageRow persistence filter is applied.
func (t *Table) Build(pageDumpPath string, nThreads int) error {
	return dumpproc.Run(pageDumpPath, "page", nThreads, dumprow.PageStrategy{}, func(p *dumprow.Parser[types.PageRow], begin, end int64) error {
		batch := grocksdb.NewWriteBatch()
		defer batch.Destroy()

		const flushEvery = 10000
		staged := 0
		for {
			row, ok, err := p.Next(begin)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if row.IsRedirect || row.PageTitle == "" || row.PageId == 0 {
				t.skipped.Add(1)
				continue
			}
			batch.Put(keyOf(row.PageId), []byte(row.PageTitle))
			t.imported.Add(1)
			staged++
			if staged >= flushEvery {
				if err := t.db.Write(t.wo, batch); err != nil {
					return wikierrors.NewStoreFailure("pagetable.Build", err)
				}
				batch.Clear()
				staged = 0
			}
		}
		if staged > 0 {
			if err := t.db.Write(t.wo, batch); err != nil {
				return wikierrors.NewStoreFailure("pagetable.Build", err)
			}
		}
		return nil
	})
}

// Close releases the RocksDB handle. If remove is true, it also deletes
// the table's directory from disk, per spec §2: "C7 is deleted at end of
// build."
func (t *Table) Close(remove bool) error {
	t.ro.Destroy()
	t.wo.Destroy()
	t.db.Close()
	if remove {
		return os.RemoveAll(t.dir)
	}
	return nil
}
