package pvdata

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestBitSetBasic(t *testing.T) {
	bitSet := NewBitSet()
	assert.Equal(t, bitSet.IsEmpty(), true)
	assert.Equal(t, bitSet.Cardinality(), 0)
	assert.Equal(t, bitSet.Get(0), false)

	bitSet.Set(0)
	bitSet.Set(3)
	// crosses the word boundary
	bitSet.Set(70)
	assert.Equal(t, bitSet.IsEmpty(), false)
	assert.Equal(t, bitSet.Cardinality(), 3)
	assert.Equal(t, bitSet.Get(0), true)
	assert.Equal(t, bitSet.Get(3), true)
	assert.Equal(t, bitSet.Get(70), true)
	assert.Equal(t, bitSet.Get(1), false)
	assert.Equal(t, bitSet.Get(1024), false)
	assert.Equal(t, bitSet.String(), "{0, 3, 70}")

	bitSet.Clear(3)
	assert.Equal(t, bitSet.Get(3), false)
	assert.Equal(t, bitSet.Cardinality(), 2)

	bitSet.ClearAll()
	assert.Equal(t, bitSet.IsEmpty(), true)
}

func TestBitSetOrAnd(t *testing.T) {
	a := BitSetOf(1, 2, 70)
	b := BitSetOf(2, 3)

	a.Or(b)
	assert.Equal(t, a.Get(1), true)
	assert.Equal(t, a.Get(2), true)
	assert.Equal(t, a.Get(3), true)
	assert.Equal(t, a.Get(70), true)

	a.And(BitSetOf(2, 70))
	assert.Equal(t, a.Get(1), false)
	assert.Equal(t, a.Get(2), true)
	assert.Equal(t, a.Get(3), false)
	assert.Equal(t, a.Get(70), true)

	a.And(nil)
	assert.Equal(t, a.IsEmpty(), true)
}

func TestBitSetClone(t *testing.T) {
	a := BitSetOf(1, 5)
	b := a.Clone()
	b.Set(9)

	assert.Equal(t, a.Get(9), false)
	assert.Equal(t, b.Get(9), true)
	assert.Equal(t, b.Get(1), true)
}

func TestBitSetNil(t *testing.T) {
	// a nil change set reads as empty
	var bitSet *BitSet
	assert.Equal(t, bitSet.IsEmpty(), true)
	assert.Equal(t, bitSet.Get(3), false)
	assert.Equal(t, bitSet.Cardinality(), 0)
	assert.Equal(t, bitSet.String(), "{}")
	assert.Equal(t, bitSet.Clone(), nil)
}
