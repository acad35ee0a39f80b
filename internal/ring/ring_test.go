package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsZeroSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestNew_RejectsNegativeSize(t *testing.T) {
	_, err := New(-1)
	require.Error(t, err)
}

func TestBoundedRing_PushAndEquals(t *testing.T) {
	r, err := New(5)
	require.NoError(t, err)

	for _, b := range []byte("abcdef") {
		r.Push(b)
	}

	assert.True(t, r.Equals([]byte("bcdef")))
	assert.False(t, r.Equals([]byte("abcde")))
}

func TestBoundedRing_NotFullUntilCapacityReached(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	r.Push('a')
	r.Push('b')
	r.Push('c')
	assert.False(t, r.Equals([]byte("xabc"))) // not full yet, never equal

	r.Push('d')
	assert.True(t, r.Equals([]byte("abcd")))
}

func TestBoundedRing_Reset(t *testing.T) {
	r, err := New(3)
	require.NoError(t, err)
	r.Push('x')
	r.Push('y')
	r.Push('z')
	require.True(t, r.Equals([]byte("xyz")))

	r.Reset()
	assert.False(t, r.Equals([]byte("xyz")))

	r.Push('x')
	r.Push('y')
	r.Push('z')
	assert.True(t, r.Equals([]byte("xyz")))
}

func TestBoundedRing_EqualsPanicsOnLengthMismatch(t *testing.T) {
	r, err := New(3)
	require.NoError(t, err)
	assert.Panics(t, func() {
		r.Equals([]byte("ab"))
	})
}
