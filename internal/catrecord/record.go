// Package catrecord defines CategoryLinkRecord, the value stored per
// category in the persistent index, and its length-prefixed binary
// encoding (C8).
package catrecord

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/proprietary/wikidice/internal/types"
)

// Record is the primary value of the persistent store, keyed by
// category_name. Pages and Subcategories preserve insertion order;
// Weights is strictly sorted by depth ascending with no duplicate depths
// (I2).
type Record struct {
	Pages         []types.PageId
	Subcategories []types.CategoryId
	Weights       []types.CategoryWeight
}

// WeightAtDepth binary-searches Weights by depth. An exact match returns
// that weight; otherwise — per §4.8, which the reader's out-of-range
// picks at depths beyond the computed ceiling rely on — it returns the
// last (largest-depth) weight, or 0 if Weights is empty.
func (r *Record) WeightAtDepth(d uint8) uint64 {
	n := len(r.Weights)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return r.Weights[i].Depth >= d })
	if i < n && r.Weights[i].Depth == d {
		return r.Weights[i].Weight
	}
	return r.Weights[n-1].Weight
}

// SetWeights replaces Weights with w, which must already be
// depth-sorted and deduplicated; callers in graphindex build it that way.
func (r *Record) SetWeights(w []types.CategoryWeight) {
	r.Weights = w
}

// --- Serialization -------------------------------------------------------
//
// Encoding is little-endian throughout, three length-prefixed sections in
// field order:
//   uint32 len(Pages)         followed by that many uint64 page ids
//   uint32 len(Subcategories) followed by that many uint64 category ids
//   uint32 len(Weights)       followed by that many (uint8 depth, uint64 weight) pairs
//
// This round-trips losslessly (R1) and is independent of host byte order.

// Encode serializes r into its on-disk representation.
func Encode(r *Record) []byte {
	size := 4 + 8*len(r.Pages) + 4 + 8*len(r.Subcategories) + 4 + (1+8)*len(r.Weights)
	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Pages)))
	off += 4
	for _, p := range r.Pages {
		binary.LittleEndian.PutUint64(buf[off:], uint64(p))
		off += 8
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Subcategories)))
	off += 4
	for _, c := range r.Subcategories {
		binary.LittleEndian.PutUint64(buf[off:], uint64(c))
		off += 8
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Weights)))
	off += 4
	for _, w := range r.Weights {
		buf[off] = w.Depth
		off++
		binary.LittleEndian.PutUint64(buf[off:], w.Weight)
		off += 8
	}
	return buf
}

// Decode deserializes a Record from its on-disk representation, as
// produced by Encode. It returns an error on any truncated or malformed
// buffer rather than panicking, since decode failures surface from the
// embedded KV layer at read time.
func Decode(data []byte) (*Record, error) {
	r := &Record{}
	off := 0

	readU32 := func(name string) (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("catrecord: truncated while reading %s length", name)
		}
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return v, nil
	}

	nPages, err := readU32("pages")
	if err != nil {
		return nil, err
	}
	if off+8*int(nPages) > len(data) {
		return nil, fmt.Errorf("catrecord: truncated pages section")
	}
	if nPages > 0 {
		r.Pages = make([]types.PageId, nPages)
		for i := range r.Pages {
			r.Pages[i] = types.PageId(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
	}

	nSubs, err := readU32("subcategories")
	if err != nil {
		return nil, err
	}
	if off+8*int(nSubs) > len(data) {
		return nil, fmt.Errorf("catrecord: truncated subcategories section")
	}
	if nSubs > 0 {
		r.Subcategories = make([]types.CategoryId, nSubs)
		for i := range r.Subcategories {
			r.Subcategories[i] = types.CategoryId(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
	}

	nWeights, err := readU32("weights")
	if err != nil {
		return nil, err
	}
	if off+9*int(nWeights) > len(data) {
		return nil, fmt.Errorf("catrecord: truncated weights section")
	}
	if nWeights > 0 {
		r.Weights = make([]types.CategoryWeight, nWeights)
		for i := range r.Weights {
			r.Weights[i].Depth = data[off]
			off++
			r.Weights[i].Weight = binary.LittleEndian.Uint64(data[off:])
			off += 8
		}
	}

	return r, nil
}
