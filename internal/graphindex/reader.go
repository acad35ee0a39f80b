package graphindex

import (
	"math/rand"

	"github.com/linxGnu/grocksdb"

	"github.com/proprietary/wikidice/internal/catrecord"
	"github.com/proprietary/wikidice/internal/types"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// maxAutocompleteResults caps search_categories regardless of the
// requested count (B4).
const maxAutocompleteResults = 100

// maxPrefixLen rejects prefixes past this length with an empty result
// (B4).
const maxPrefixLen = 1000

// Reader serves the derived query operations over an already-built
// index: random picks, derivations, autocomplete and full-record lookup.
// Safe for concurrent use across request goroutines — the store is
// immutable during serving and RocksDB's own internal locking covers the
// rest (§5).
type Reader struct {
	*store
}

// OpenReader opens the index at dbPath for serving. RocksDB's own
// options (e.g. a one-shot compaction trigger) may require write access
// at open time even though no further writes happen afterward; no
// concurrent writer may share the same path while a Reader is open
// (§3 Ownership).
func OpenReader(dbPath string) (*Reader, error) {
	s, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Reader{store: s}, nil
}

// Close releases the reader's database handle.
func (r *Reader) Close() error {
	r.store.close()
	return nil
}

// Get returns the full stored record for a category name, or ok=false
// if no such category exists (NotFound, not an error).
func (r *Reader) Get(categoryName string) (*catrecord.Record, bool, error) {
	return r.get(categoryName)
}

// PickAtDepth returns a uniformly-random article page reachable from
// categoryName by at most depth nested subcategory traversals, weighted
// per §4.10's compute_weight. It returns ok=false if the category is
// absent or its weight at depth is zero (B3).
func (r *Reader) PickAtDepth(categoryName string, depth uint8, rng *rand.Rand) (types.PageId, bool, error) {
	rec, ok, err := r.get(categoryName)
	if err != nil || !ok {
		return 0, false, err
	}
	w := rec.WeightAtDepth(depth)
	if w == 0 {
		return 0, false, nil
	}
	i := rng.Uint64() % w
	page, ok, err := r.atIndex(categoryName, int64(i), depth)
	if err != nil {
		return 0, false, err
	}
	return page, ok, nil
}

// PickAtDepthAndShowDerivation is PickAtDepth plus the ordered list of
// category names visited during the descent, starting with
// categoryName, per §4.11's derivation output. This implementation uses
// the same recursive at_index the plain pick uses, not the source's
// stack-based variant — the single canonical descent Q2 calls for.
func (r *Reader) PickAtDepthAndShowDerivation(categoryName string, depth uint8, rng *rand.Rand) (types.PageId, []string, bool, error) {
	rec, ok, err := r.get(categoryName)
	if err != nil || !ok {
		return 0, nil, false, err
	}
	w := rec.WeightAtDepth(depth)
	if w == 0 {
		return 0, nil, false, nil
	}
	i := rng.Uint64() % w
	var derivation []string
	page, ok, err := r.atIndexWithDerivation(categoryName, int64(i), depth, &derivation)
	if err != nil {
		return 0, nil, false, err
	}
	return page, derivation, ok, nil
}

// atIndex performs the depth-bounded descent of §4.11: the i-th article
// reachable from name within depth d, counting name's own pages first and
// then each subcategory's weight-at-depth-d share in order.
func (r *Reader) atIndex(name string, i int64, d uint8) (types.PageId, bool, error) {
	rec, ok, err := r.get(name)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if i < int64(len(rec.Pages)) {
		return rec.Pages[i], true, nil
	}
	i -= int64(len(rec.Pages))

	for _, subID := range rec.Subcategories {
		subName, ok, err := r.resolveName(subID)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		subRec, ok, err := r.get(subName)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		w := subRec.WeightAtDepth(d)
		if w == 0 {
			// Fallback for categories whose weights were not
			// materialized, per §4.11's at_index pseudocode.
			w, err = r.computeWeight(subName, d)
			if err != nil {
				return 0, false, err
			}
		}
		if i < int64(w) {
			return r.atIndex(subName, i, d)
		}
		i -= int64(w)
	}
	return 0, false, nil
}

// atIndexWithDerivation is atIndex with a derivation accumulator.
func (r *Reader) atIndexWithDerivation(name string, i int64, d uint8, derivation *[]string) (types.PageId, bool, error) {
	*derivation = append(*derivation, name)

	rec, ok, err := r.get(name)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if i < int64(len(rec.Pages)) {
		return rec.Pages[i], true, nil
	}
	i -= int64(len(rec.Pages))

	for _, subID := range rec.Subcategories {
		subName, ok, err := r.resolveName(subID)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		subRec, ok, err := r.get(subName)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		w := subRec.WeightAtDepth(d)
		if w == 0 {
			w, err = r.computeWeight(subName, d)
			if err != nil {
				return 0, false, err
			}
		}
		if i < int64(w) {
			return r.atIndexWithDerivation(subName, i, d, derivation)
		}
		i -= int64(w)
	}
	return 0, false, nil
}

// SearchCategories performs a prefix seek over categorylinks keys,
// returning up to min(requestedCount, 100) keys in storage order that
// start with prefix. Prefixes longer than 1000 bytes yield an empty
// result (B4). Not locale-aware: raw-byte storage-order comparison,
// intentionally (§9 Q4).
func (r *Reader) SearchCategories(prefix string, requestedCount int) ([]string, error) {
	if len(prefix) > maxPrefixLen {
		return nil, nil
	}
	limit := requestedCount
	if limit > maxAutocompleteResults {
		limit = maxAutocompleteResults
	}
	if limit <= 0 {
		return nil, nil
	}

	// The categorylinks prefix extractor caps at prefixSeekCap bytes, so a
	// key's prefix is its whole name; a seek on a shorter prefix must run
	// in total order or the prefix filter would skip the matching keys.
	ro := grocksdb.NewDefaultReadOptions()
	ro.SetTotalOrderSeek(true)
	defer ro.Destroy()
	it := r.db.NewIteratorCF(ro, r.categoryLinks)
	defer it.Close()

	var out []string
	prefixBytes := []byte(prefix)
	for it.Seek(prefixBytes); it.Valid() && len(out) < limit; it.Next() {
		if !it.ValidForPrefix(prefixBytes) {
			break
		}
		keySlice := it.Key()
		out = append(out, string(keySlice.Data()))
		keySlice.Free()
	}
	if err := it.Err(); err != nil {
		return nil, wikierrors.NewStoreFailure("graphindex.SearchCategories", err)
	}
	return out, nil
}

// ForEach iterates every stored record in key order, stopping early if
// visitor returns false.
func (r *Reader) ForEach(visitor func(categoryName string, rec *catrecord.Record) bool) error {
	it := r.db.NewIteratorCF(r.ro, r.categoryLinks)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keySlice := it.Key()
		name := string(keySlice.Data())
		keySlice.Free()

		valSlice := it.Value()
		rec, err := catrecord.Decode(valSlice.Data())
		valSlice.Free()
		if err != nil {
			return wikierrors.NewStoreFailure("graphindex.ForEach:decode", err)
		}
		if !visitor(name, rec) {
			break
		}
	}
	return it.Err()
}

// Take returns up to n category names in key order, a convenience built
// on ForEach for the embedded-language binding surface (§6).
func (r *Reader) Take(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	var names []string
	err := r.ForEach(func(name string, _ *catrecord.Record) bool {
		names = append(names, name)
		return len(names) < n
	})
	return names, err
}
