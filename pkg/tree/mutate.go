package tree

import (
	"fmt"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// Clip records a subtree detached by [Tree.Clip].
//
// The detached piece is the subtree behind Subtree plus the ring of Base,
// whose two free slots are Slots. While clipped, Up and Down are joined
// directly; Slots[0] was connected to Up and Slots[1] to Down.
type Clip struct {
	Subtree NodeID
	Base    NodeID
	Slots   [2]NodeID
	Up      NodeID
	Down    NodeID
}

// Clip detaches the subtree whose top node is sub, taking along the ring sub
// hangs from. The ring's other two neighbors are joined to close the gap.
func (t *Tree) Clip(sub NodeID) (Clip, error) {
	if !t.valid(sub) {
		return Clip{}, fmt.Errorf("clip %d: %w", sub, ErrInvalidNode)
	}
	if t.root != None {
		return Clip{}, fmt.Errorf("clip %d: %w", sub, ErrRooted)
	}
	base := t.nodes[sub].edge
	if base == None {
		return Clip{}, fmt.Errorf("clip %d: %w", sub, ErrDisconnected)
	}
	if t.IsTerminal(base) {
		return Clip{}, fmt.Errorf("clip %d: parent %d: %w", sub, base, ErrNotRing)
	}
	s1, s2 := t.Mates(base)
	up, down := t.nodes[s1].edge, t.nodes[s2].edge
	if up == None || down == None {
		return Clip{}, fmt.Errorf("clip %d: ring already open: %w", sub, ErrDisconnected)
	}
	t.cut(s1)
	t.cut(s2)
	t.link(up, down)
	t.markClipped(base, true)
	return Clip{Subtree: sub, Base: base, Slots: [2]NodeID{s1, s2}, Up: up, Down: down}, nil
}

// Insert splices a clipped subtree into the edge between tgt and its
// partner: Slots[0] is joined to tgt and Slots[1] to the partner.
func (t *Tree) Insert(c Clip, tgt NodeID) error {
	if !t.valid(tgt) {
		return fmt.Errorf("insert at %d: %w", tgt, ErrInvalidNode)
	}
	if t.root != None {
		return fmt.Errorf("insert at %d: %w", tgt, ErrRooted)
	}
	if t.nodes[c.Slots[0]].edge != None || t.nodes[c.Slots[1]].edge != None {
		return fmt.Errorf("insert at %d: subtree is attached: %w", tgt, ErrConnected)
	}
	if t.nodes[tgt].clipped {
		return errors.New(errors.ErrCodeStructural, "insert at %d: target belongs to the clipped ring", tgt)
	}
	other := t.nodes[tgt].edge
	if other == None {
		return fmt.Errorf("insert at %d: %w", tgt, ErrDisconnected)
	}
	t.cut(tgt)
	t.link(c.Slots[0], tgt)
	t.link(c.Slots[1], other)
	t.markClipped(c.Base, false)
	return nil
}

// Restore reinserts c where it was clipped from, undoing [Tree.Clip] exactly.
func (t *Tree) Restore(c Clip) error {
	if t.nodes[c.Up].edge != c.Down {
		return errors.New(errors.ErrCodeStructural, "restore: %d and %d are no longer joined", c.Up, c.Down)
	}
	return t.Insert(c, c.Up)
}

func (t *Tree) markClipped(base NodeID, v bool) {
	for _, s := range t.rings[t.nodes[base].ring].slots {
		t.nodes[s].clipped = v
	}
}

// Swap exchanges the subtrees behind p and q: p takes q's partner and q
// takes p's. When p and q are mates of the two ends of an internal edge this
// is a nearest-neighbor interchange; swapping again reverts it.
func (t *Tree) Swap(p, q NodeID) error {
	if !t.valid(p) || !t.valid(q) || p == q {
		return fmt.Errorf("swap %d/%d: %w", p, q, ErrInvalidNode)
	}
	if t.root != None {
		return fmt.Errorf("swap %d/%d: %w", p, q, ErrRooted)
	}
	pe, qe := t.nodes[p].edge, t.nodes[q].edge
	if pe == None || qe == None {
		return fmt.Errorf("swap %d/%d: %w", p, q, ErrDisconnected)
	}
	if pe == q {
		return errors.New(errors.ErrCodeStructural, "swap %d/%d: nodes are joined to each other", p, q)
	}
	t.link(p, qe)
	t.link(q, pe)
	return nil
}

// Graft allocates a ring, joins it to sub and splices it into the edge at tgt.
// It is how addition sequences grow a tree one terminal at a time.
func (t *Tree) Graft(sub, tgt NodeID) (Clip, error) {
	if t.root != None {
		return Clip{}, fmt.Errorf("graft %d: %w", sub, ErrRooted)
	}
	r, err := t.NewRing()
	if err != nil {
		return Clip{}, err
	}
	s := t.rings[r].slots
	if err := t.Join(s[0], sub); err != nil {
		t.rings[r].used = false
		return Clip{}, err
	}
	c := Clip{Subtree: sub, Base: s[0], Slots: [2]NodeID{s[1], s[2]}}
	if err := t.Insert(c, tgt); err != nil {
		t.cut(s[0])
		t.rings[r].used = false
		return Clip{}, err
	}
	c.Up, c.Down = tgt, t.nodes[s[2]].edge
	return c, nil
}

// TempRoot splices the root ring into the edge between at and its partner.
// The root's bottom slot becomes [Tree.Root]; its other slots lead to at and
// to the former partner, in that order.
func (t *Tree) TempRoot(at NodeID) error {
	if !t.valid(at) {
		return fmt.Errorf("root at %d: %w", at, ErrInvalidNode)
	}
	if t.root != None {
		return fmt.Errorf("root at %d: %w", at, ErrRooted)
	}
	other := t.nodes[at].edge
	if other == None {
		return fmt.Errorf("root at %d: %w", at, ErrDisconnected)
	}
	s := t.rings[t.rootRing].slots
	t.cut(at)
	t.link(s[1], at)
	t.link(s[2], other)
	t.root = s[0]
	return nil
}

// Unroot removes the temporary root and rejoins the edge it split.
func (t *Tree) Unroot() error {
	if t.root == None {
		return ErrNotRooted
	}
	s := t.rings[t.rootRing].slots
	a, b := t.cut(s[1]), t.cut(s[2])
	t.link(a, b)
	t.root = None
	return nil
}
