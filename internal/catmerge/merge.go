// Package catmerge implements the associative combiner the persistent
// index's categorylinks column family registers as its RocksDB merge
// operator (C9), plus the merge_by_depth primitive it uses for weights.
// This is the only place weight vectors are merged: the writer's second
// pass builds each vector whole and replaces the stored one.
package catmerge

import (
	"sort"

	"github.com/proprietary/wikidice/internal/catrecord"
	"github.com/proprietary/wikidice/internal/types"
)

// MergeByDepth combines two depth-sorted-or-not weight vectors into one,
// sorted ascending by depth with no duplicate depths, each depth's weight
// equal to the sum of its contributions from a and b. Per §4.9:
//  1. each input is deduplicated by depth (keeping one arbitrary entry
//     per depth — the reference never observes true duplicates within a
//     single vector, since callers only ever build vectors with SetWeights
//     or this function itself);
//  2. each input is sorted by depth;
//  3. a two-pointer walk sums equal depths and carries through the rest.
//
// This is commutative and associative: it is pointwise sum on a sparse
// function depth -> weight (P6).
func MergeByDepth(a, b []types.CategoryWeight) []types.CategoryWeight {
	da := dedupeSorted(a)
	db := dedupeSorted(b)

	out := make([]types.CategoryWeight, 0, len(da)+len(db))
	i, j := 0, 0
	for i < len(da) && j < len(db) {
		switch {
		case da[i].Depth == db[j].Depth:
			out = append(out, types.CategoryWeight{Depth: da[i].Depth, Weight: da[i].Weight + db[j].Weight})
			i++
			j++
		case da[i].Depth < db[j].Depth:
			out = append(out, da[i])
			i++
		default:
			out = append(out, db[j])
			j++
		}
	}
	out = append(out, da[i:]...)
	out = append(out, db[j:]...)
	return out
}

func dedupeSorted(w []types.CategoryWeight) []types.CategoryWeight {
	if len(w) == 0 {
		return nil
	}
	cp := make([]types.CategoryWeight, len(w))
	copy(cp, w)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Depth < cp[j].Depth })

	out := cp[:0:0]
	for i := 0; i < len(cp); i++ {
		if i > 0 && cp[i].Depth == cp[i-1].Depth {
			continue // keep the first of any duplicate depth, arbitrarily
		}
		out = append(out, cp[i])
	}
	return out
}

// Combine implements §4.9's combine(existing, incoming): pages and
// subcategories concatenate (trivially associative); weights merge by
// depth. Absence of existing (first write for a key) returns incoming
// verbatim, copied so the caller never aliases the operand slice.
func Combine(existing, incoming *catrecord.Record) *catrecord.Record {
	if existing == nil {
		out := &catrecord.Record{
			Pages:         append([]types.PageId(nil), incoming.Pages...),
			Subcategories: append([]types.CategoryId(nil), incoming.Subcategories...),
			Weights:       append([]types.CategoryWeight(nil), incoming.Weights...),
		}
		return out
	}
	return &catrecord.Record{
		Pages:         append(append([]types.PageId(nil), existing.Pages...), incoming.Pages...),
		Subcategories: append(append([]types.CategoryId(nil), existing.Subcategories...), incoming.Subcategories...),
		Weights:       MergeByDepth(existing.Weights, incoming.Weights),
	}
}

// Operator adapts Combine to the shape a RocksDB-style merge operator
// registration expects: FullMerge folds an existing value and a run of
// queued operands into one, PartialMerge folds two operands together
// without a base value (used by the store to compact its own operand
// log), and Name identifies the operator for compatibility checks at
// database open time.
type Operator struct{}

// FullMerge decodes existingValue (if present) and every operand, combines
// them left to right through Combine, and re-encodes the result.
func (Operator) FullMerge(key, existingValue []byte, operands [][]byte) ([]byte, bool) {
	var acc *catrecord.Record
	if existingValue != nil {
		rec, err := catrecord.Decode(existingValue)
		if err != nil {
			return nil, false
		}
		acc = rec
	}
	for _, operand := range operands {
		incoming, err := catrecord.Decode(operand)
		if err != nil {
			return nil, false
		}
		acc = Combine(acc, incoming)
	}
	if acc == nil {
		acc = &catrecord.Record{}
	}
	return catrecord.Encode(acc), true
}

// PartialMerge combines two not-yet-applied operands without a base
// record; associativity (§4.9) is exactly what makes this safe.
func (Operator) PartialMerge(key, left, right []byte) ([]byte, bool) {
	l, err := catrecord.Decode(left)
	if err != nil {
		return nil, false
	}
	r, err := catrecord.Decode(right)
	if err != nil {
		return nil, false
	}
	return catrecord.Encode(Combine(l, r)), true
}

// Name identifies this merge operator to the embedded KV store.
func (Operator) Name() string { return "wikidice.CategoryLinkRecordMergeOperator" }
