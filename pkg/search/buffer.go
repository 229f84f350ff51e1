package search

import (
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/tree"
)

var (
	// ErrBufferFull is returned when a tree must be stored in a full buffer.
	ErrBufferFull = errors.New(errors.ErrCodeCapacityExceeded, "tree buffer full")

	// ErrRearrangementLimit is returned when the rearrangement ceiling is reached.
	ErrRearrangementLimit = errors.New(errors.ErrCodeCapacityExceeded, "rearrangement limit reached")
)

type entry struct {
	tree    *tree.Tree
	splits  tree.Bipartitions
	swapped bool
}

// Buffer is a bounded, ordered collection of trees it owns. Trees are
// identified by their bipartition sets.
type Buffer struct {
	entries  []entry
	capacity int
}

// NewBuffer returns an empty buffer for at most capacity trees.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, errors.New(errors.ErrCodeAllocation, "tree buffer capacity must be positive, got %d", capacity)
	}
	return &Buffer{capacity: capacity}, nil
}

// Len returns the number of stored trees.
func (b *Buffer) Len() int { return len(b.entries) }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Tree returns the i-th stored tree.
func (b *Buffer) Tree(i int) *tree.Tree { return b.entries[i].tree }

// Trees returns the stored trees in order.
func (b *Buffer) Trees() []*tree.Tree {
	out := make([]*tree.Tree, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.tree
	}
	return out
}

// Contains reports whether a tree with the given bipartitions is stored at
// index from or later.
func (b *Buffer) Contains(splits tree.Bipartitions, from int) bool {
	return contains(b.entries[from:], splits)
}

// Add stores t unless a tree with the same bipartitions is stored at index
// from or later, and reports whether t was stored. The buffer takes
// ownership of t.
func (b *Buffer) Add(t *tree.Tree, from int) (bool, error) {
	splits := t.Bipartitions()
	if b.Contains(splits, from) {
		return false, nil
	}
	if err := b.push(t, splits); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Buffer) push(t *tree.Tree, splits tree.Bipartitions) error {
	if len(b.entries) >= b.capacity {
		return ErrBufferFull
	}
	b.entries = append(b.entries, entry{tree: t, splits: splits})
	return nil
}

// Truncate drops every tree from index n on.
func (b *Buffer) Truncate(n int) {
	if n >= len(b.entries) {
		return
	}
	clear(b.entries[n:])
	b.entries = b.entries[:n]
}

// dedupe drops trees at index from or later that repeat a tree stored before from.
func (b *Buffer) dedupe(from int) {
	head := b.entries[:from]
	kept := head
	for _, e := range b.entries[from:] {
		if !contains(head, e.splits) {
			kept = append(kept, e)
		}
	}
	clear(b.entries[len(kept):])
	b.entries = kept
}

func (b *Buffer) swapped(i int) bool { return b.entries[i].swapped }

func (b *Buffer) markSwapped(i int) { b.entries[i].swapped = true }

func contains(entries []entry, splits tree.Bipartitions) bool {
	for _, e := range entries {
		if e.splits.Equal(splits) {
			return true
		}
	}
	return false
}
