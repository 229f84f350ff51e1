package tree

import (
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Bitset is a set of taxon indices.
type Bitset []uint64

// NewBitset returns an empty set able to hold n taxa.
func NewBitset(n int) Bitset { return make(Bitset, (n+63)/64) }

// Set adds taxon i.
func (b Bitset) Set(i int) { b[i/64] |= 1 << (i % 64) }

// Has reports whether taxon i is in the set.
func (b Bitset) Has(i int) bool { return b[i/64]&(1<<(i%64)) != 0 }

// Union adds every member of o to b.
func (b Bitset) Union(o Bitset) {
	for i := range b {
		b[i] |= o[i]
	}
}

// Count returns the number of members.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Complement flips membership for taxa [0, n).
func (b Bitset) Complement(n int) {
	for i := range b {
		b[i] = ^b[i]
	}
	if r := n % 64; r != 0 {
		b[len(b)-1] &= 1<<r - 1
	}
}

// Compare orders bitsets word by word.
func (b Bitset) Compare(o Bitset) int {
	for i := range b {
		switch {
		case b[i] < o[i]:
			return -1
		case b[i] > o[i]:
			return 1
		}
	}
	return 0
}

// String lists the 1-based taxon numbers in the set.
func (b Bitset) String() string {
	var parts []string
	for i := 0; i < 64*len(b); i++ {
		if b.Has(i) {
			parts = append(parts, strconv.Itoa(i+1))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Bipartitions is the sorted set of non-trivial splits of a tree. Each split
// is stored as the side that does not contain taxon 0, so two trees share a
// value exactly when they share a topology.
type Bipartitions []Bitset

// Equal reports whether both sets hold the same splits.
func (p Bipartitions) Equal(o Bipartitions) bool {
	return slices.EqualFunc(p, o, func(a, b Bitset) bool { return a.Compare(b) == 0 })
}

// Bipartitions computes the splits induced by the internal edges of t.
func (t *Tree) Bipartitions() Bipartitions {
	var out Bipartitions
	top := t.Neighbor(t.start)
	if top == None || t.IsTerminal(top) {
		return out
	}
	a, b := t.Mates(top)
	t.collectSplits(t.Neighbor(a), &out)
	t.collectSplits(t.Neighbor(b), &out)
	for _, s := range out {
		if s.Has(0) {
			s.Complement(t.ntax)
		}
	}
	slices.SortFunc(out, Bitset.Compare)
	return out
}

// collectSplits returns the taxa behind n and appends one split per internal
// edge below it.
func (t *Tree) collectSplits(n NodeID, out *Bipartitions) Bitset {
	set := NewBitset(t.ntax)
	if t.IsTerminal(n) {
		set.Set(int(n))
		return set
	}
	a, b := t.Mates(n)
	set.Union(t.collectSplits(t.Neighbor(a), out))
	set.Union(t.collectSplits(t.Neighbor(b), out))
	*out = append(*out, slices.Clone(set))
	return set
}
