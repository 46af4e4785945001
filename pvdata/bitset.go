package pvdata

import (
	"fmt"
	"math/bits"
	"strings"

	"golang.org/x/exp/slices"
)

// change set over the leaf fields of a record value
// bit i corresponds to leaf i in the type descriptor's ordering
// read operations are nil safe so an absent change set reads as empty

type BitSet struct {
	words []uint64
}

func NewBitSet() *BitSet {
	return &BitSet{}
}

func BitSetOf(indexes ...int) *BitSet {
	bitSet := NewBitSet()
	for _, i := range indexes {
		bitSet.Set(i)
	}
	return bitSet
}

func (self *BitSet) Set(i int) {
	w := i >> 6
	for len(self.words) <= w {
		self.words = append(self.words, 0)
	}
	self.words[w] |= uint64(1) << (i & 63)
}

func (self *BitSet) Clear(i int) {
	w := i >> 6
	if w < len(self.words) {
		self.words[w] &^= uint64(1) << (i & 63)
	}
}

func (self *BitSet) Get(i int) bool {
	if self == nil {
		return false
	}
	w := i >> 6
	if len(self.words) <= w {
		return false
	}
	return self.words[w]&(uint64(1)<<(i&63)) != 0
}

func (self *BitSet) IsEmpty() bool {
	if self == nil {
		return true
	}
	for _, word := range self.words {
		if word != 0 {
			return false
		}
	}
	return true
}

func (self *BitSet) Cardinality() int {
	if self == nil {
		return 0
	}
	c := 0
	for _, word := range self.words {
		c += bits.OnesCount64(word)
	}
	return c
}

func (self *BitSet) Or(bitSet *BitSet) {
	if bitSet == nil {
		return
	}
	for len(self.words) < len(bitSet.words) {
		self.words = append(self.words, 0)
	}
	for i, word := range bitSet.words {
		self.words[i] |= word
	}
}

func (self *BitSet) And(bitSet *BitSet) {
	for i := range self.words {
		if bitSet == nil || len(bitSet.words) <= i {
			self.words[i] = 0
		} else {
			self.words[i] &= bitSet.words[i]
		}
	}
}

func (self *BitSet) ClearAll() {
	for i := range self.words {
		self.words[i] = 0
	}
}

func (self *BitSet) Clone() *BitSet {
	if self == nil {
		return nil
	}
	return &BitSet{
		words: slices.Clone(self.words),
	}
}

func (self *BitSet) String() string {
	if self == nil {
		return "{}"
	}
	parts := []string{}
	for i := 0; i < 64*len(self.words); i += 1 {
		if self.Get(i) {
			parts = append(parts, fmt.Sprintf("%d", i))
		}
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}
