// Package ring implements the bounded byte ring the SQL dump lexer uses to
// recognize a fixed-length delimiter in a streaming fashion, without
// buffering more than the delimiter's own length.
package ring

import "github.com/proprietary/wikidice/internal/wikierrors"

// BoundedRing is a fixed-capacity ring of bytes. Push is amortized O(1);
// Equals compares the ring's last n pushed bytes against a target of
// length n. Not safe for concurrent use.
type BoundedRing struct {
	data []byte
	pos  int
	full bool
}

// New creates a ring of the given capacity. n must be greater than zero.
func New(n int) (*BoundedRing, error) {
	if n <= 0 {
		return nil, wikierrors.NewInvalidArgument("ring.New", "n must be > 0")
	}
	return &BoundedRing{data: make([]byte, n)}, nil
}

// Push appends a byte, overwriting the oldest byte once the ring is full.
func (r *BoundedRing) Push(b byte) {
	r.data[r.pos] = b
	r.pos++
	if r.pos == len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// Equals reports whether the ring currently holds exactly len(target) bytes
// that equal target, in order. It panics if len(target) != the ring's
// capacity, since that is always a caller bug rather than a runtime
// condition to recover from.
func (r *BoundedRing) Equals(target []byte) bool {
	if len(target) != len(r.data) {
		panic("ring: Equals target length must match ring capacity")
	}
	if !r.full {
		return false
	}
	n := len(r.data)
	for i := 0; i < n; i++ {
		idx := (r.pos + i) % n
		if r.data[idx] != target[i] {
			return false
		}
	}
	return true
}

// Reset clears the ring's logical contents without reallocating.
func (r *BoundedRing) Reset() {
	r.pos = 0
	r.full = false
}

// Len returns the ring's fixed capacity.
func (r *BoundedRing) Len() int { return len(r.data) }
