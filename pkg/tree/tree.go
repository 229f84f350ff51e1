package tree

import (
	"fmt"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
)

// NodeID addresses a node within one Tree.
type NodeID int32

// None is the edge of a disconnected node.
const None NodeID = -1

var (
	// ErrConnected is returned by [Tree.Join] when either node already has an edge.
	ErrConnected = errors.New(errors.ErrCodeStructural, "node already connected")

	// ErrDisconnected is returned when an operation needs an edge that is absent.
	ErrDisconnected = errors.New(errors.ErrCodeStructural, "node not connected")

	// ErrRooted is returned by structural mutators while a temporary root is attached.
	ErrRooted = errors.New(errors.ErrCodeStructural, "tree is temporarily rooted")

	// ErrNotRooted is returned by [Tree.Unroot] on an unrooted tree.
	ErrNotRooted = errors.New(errors.ErrCodeStructural, "tree is not rooted")

	// ErrNotRing is returned when a ring slot was expected but a terminal was given.
	ErrNotRing = errors.New(errors.ErrCodeStructural, "node is not a ring slot")

	// ErrNoRing is returned when every ring of the arena is in use.
	ErrNoRing = errors.New(errors.ErrCodeAllocation, "no free ring")

	// ErrInvalidNode is returned for handles outside the arena.
	ErrInvalidNode = errors.New(errors.ErrCodeStructural, "invalid node handle")
)

type node struct {
	edge      NodeID
	ring      int32 // -1 for terminals
	prelim    []charset.StateSet
	final     []charset.StateSet // terminals only; slots share their ring's buffer
	weight    int32
	visited   bool
	clipped   bool
	converged bool
	stale     bool
}

type ring struct {
	slots [3]NodeID
	final []charset.StateSet
	used  bool
}

// Tree is an unrooted binary tree over a fixed set of taxa.
type Tree struct {
	ntax     int
	nodes    []node
	rings    []ring
	rootRing int
	root     NodeID
	start    NodeID

	// Length caches the parsimony length of the last full optimization.
	Length int
}

// New allocates a tree for ntax taxa with every node disconnected.
func New(ntax int) (*Tree, error) {
	if ntax < 3 {
		return nil, errors.New(errors.ErrCodeAllocation, "a tree needs at least 3 taxa, got %d", ntax)
	}
	nrings := ntax - 1 // ntax-2 internal rings plus the root ring
	t := &Tree{
		ntax:     ntax,
		nodes:    make([]node, ntax+3*nrings),
		rings:    make([]ring, nrings),
		rootRing: nrings - 1,
		root:     None,
		start:    0,
	}
	for i := range t.nodes {
		t.nodes[i].edge = None
		t.nodes[i].ring = -1
	}
	for r := range t.rings {
		for k := 0; k < 3; k++ {
			id := NodeID(ntax + 3*r + k)
			t.rings[r].slots[k] = id
			t.nodes[id].ring = int32(r)
		}
	}
	t.rings[t.rootRing].used = true
	return t, nil
}

// NumTaxa returns the number of terminals.
func (t *Tree) NumTaxa() int { return t.ntax }

// NumNodes returns the size of the arena, including unused rings.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Terminal returns the node of taxon i.
func (t *Tree) Terminal(i int) NodeID { return NodeID(i) }

// IsTerminal reports whether n is a terminal.
func (t *Tree) IsTerminal(n NodeID) bool { return int(n) < t.ntax }

// Taxon returns the taxon index of terminal n, or -1 for ring slots.
func (t *Tree) Taxon(n NodeID) int {
	if t.IsTerminal(n) {
		return int(n)
	}
	return -1
}

// Edge returns the node n is connected to, or None.
func (t *Tree) Edge(n NodeID) NodeID { return t.nodes[n].edge }

// Ring returns the ring index of slot n, or -1 for terminals.
func (t *Tree) Ring(n NodeID) int { return int(t.nodes[n].ring) }

// Slots returns the three slots of ring r.
func (t *Tree) Slots(r int) [3]NodeID { return t.rings[r].slots }

// Mates returns the two other slots of n's ring, in ring order.
func (t *Tree) Mates(n NodeID) (NodeID, NodeID) {
	r := t.nodes[n].ring
	if r < 0 {
		return None, None
	}
	s := t.rings[r].slots
	switch n {
	case s[0]:
		return s[1], s[2]
	case s[1]:
		return s[2], s[0]
	default:
		return s[0], s[1]
	}
}

// Children returns the nodes across the edges of n's mates: the children of
// n when n is the bottom slot of its ring.
func (t *Tree) Children(n NodeID) (NodeID, NodeID) {
	a, b := t.Mates(n)
	return t.nodes[a].edge, t.nodes[b].edge
}

// Start returns the terminal traversals begin from.
func (t *Tree) Start() NodeID { return t.start }

// SetStart changes the traversal start. n must be a terminal.
func (t *Tree) SetStart(n NodeID) error {
	if !t.valid(n) || !t.IsTerminal(n) {
		return fmt.Errorf("set start %d: %w", n, ErrInvalidNode)
	}
	t.start = n
	return nil
}

// Root returns the bottom slot of the temporary root, or None.
func (t *Tree) Root() NodeID { return t.root }

// Rooted reports whether a temporary root is attached.
func (t *Tree) Rooted() bool { return t.root != None }

// IsRoot reports whether n belongs to the temporary root ring.
func (t *Tree) IsRoot(n NodeID) bool { return int(t.nodes[n].ring) == t.rootRing }

// RootSlots returns the slots of the ring used for temporary rooting.
func (t *Tree) RootSlots() [3]NodeID { return t.rings[t.rootRing].slots }

// Neighbor returns the node across n's edge, stepping over a temporary root.
func (t *Tree) Neighbor(n NodeID) NodeID {
	m := t.nodes[n].edge
	if m == None || !t.IsRoot(m) {
		return m
	}
	s := t.rings[t.rootRing].slots
	if m == s[1] {
		return t.nodes[s[2]].edge
	}
	return t.nodes[s[1]].edge
}

func (t *Tree) valid(n NodeID) bool { return n >= 0 && int(n) < len(t.nodes) }

// link joins a and b without checks.
func (t *Tree) link(a, b NodeID) {
	t.nodes[a].edge = b
	t.nodes[b].edge = a
}

// cut disconnects n and its partner without checks.
func (t *Tree) cut(n NodeID) NodeID {
	m := t.nodes[n].edge
	t.nodes[n].edge = None
	if m != None {
		t.nodes[m].edge = None
	}
	return m
}

// Join connects a and b. Both must be disconnected.
func (t *Tree) Join(a, b NodeID) error {
	if !t.valid(a) || !t.valid(b) || a == b {
		return fmt.Errorf("join %d-%d: %w", a, b, ErrInvalidNode)
	}
	if t.nodes[a].edge != None || t.nodes[b].edge != None {
		return fmt.Errorf("join %d-%d: %w", a, b, ErrConnected)
	}
	if ra := t.nodes[a].ring; ra >= 0 && ra == t.nodes[b].ring {
		return errors.New(errors.ErrCodeStructural, "join %d-%d: slots share a ring", a, b)
	}
	t.link(a, b)
	return nil
}

// Disconnect removes a's edge and returns its former partner.
func (t *Tree) Disconnect(a NodeID) (NodeID, error) {
	if !t.valid(a) {
		return None, fmt.Errorf("disconnect %d: %w", a, ErrInvalidNode)
	}
	if t.root != None {
		return None, fmt.Errorf("disconnect %d: %w", a, ErrRooted)
	}
	if t.nodes[a].edge == None {
		return None, fmt.Errorf("disconnect %d: %w", a, ErrDisconnected)
	}
	return t.cut(a), nil
}

// NewRing reserves an unused ring and returns its index.
func (t *Tree) NewRing() (int, error) {
	for r := range t.rings {
		if !t.rings[r].used {
			t.rings[r].used = true
			return r, nil
		}
	}
	return -1, ErrNoRing
}

// FreeRing returns ring r to the pool. Its slots must be disconnected.
func (t *Tree) FreeRing(r int) error {
	if r == t.rootRing {
		return errors.New(errors.ErrCodeStructural, "ring %d is reserved for rooting", r)
	}
	for _, s := range t.rings[r].slots {
		if t.nodes[s].edge != None {
			return fmt.Errorf("free ring %d: slot %d: %w", r, s, ErrConnected)
		}
	}
	t.rings[r].used = false
	return nil
}

// RingsInUse returns the number of allocated internal rings.
func (t *Tree) RingsInUse() int {
	n := 0
	for r := range t.rings {
		if r != t.rootRing && t.rings[r].used {
			n++
		}
	}
	return n
}

// Seed builds the three-taxon star over taxa a, b and c on a fresh ring.
func (t *Tree) Seed(a, b, c int) error {
	r, err := t.NewRing()
	if err != nil {
		return err
	}
	s := t.rings[r].slots
	for k, taxon := range [3]int{a, b, c} {
		if err := t.Join(s[k], t.Terminal(taxon)); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns a structural clone of t. State buffers are not copied.
func (t *Tree) Copy() *Tree {
	c := &Tree{
		ntax:     t.ntax,
		nodes:    make([]node, len(t.nodes)),
		rings:    make([]ring, len(t.rings)),
		rootRing: t.rootRing,
		root:     t.root,
		start:    t.start,
		Length:   t.Length,
	}
	for i := range t.nodes {
		c.nodes[i] = node{edge: t.nodes[i].edge, ring: t.nodes[i].ring, weight: t.nodes[i].weight}
	}
	for r := range t.rings {
		c.rings[r] = ring{slots: t.rings[r].slots, used: t.rings[r].used}
	}
	return c
}

// CopyInto overwrites dst with the structure of t, keeping dst's state
// buffers for reuse. Both trees must have the same number of taxa.
func (t *Tree) CopyInto(dst *Tree) error {
	if dst.ntax != t.ntax {
		return errors.New(errors.ErrCodeStructural, "copy into a %d-taxon tree from a %d-taxon tree", dst.ntax, t.ntax)
	}
	for i := range t.nodes {
		d, s := &dst.nodes[i], &t.nodes[i]
		d.edge, d.weight, d.clipped = s.edge, s.weight, s.clipped
		d.visited, d.converged = false, false
	}
	for r := range t.rings {
		dst.rings[r].slots = t.rings[r].slots
		dst.rings[r].used = t.rings[r].used
	}
	dst.root, dst.start, dst.Length = t.root, t.start, t.Length
	return nil
}

// AppendEdges appends one node per edge reachable from the start terminal,
// in preorder, and returns the extended slice. Each edge is represented by
// its end farther from the start; the other end is [Tree.Edge] of it.
func (t *Tree) AppendEdges(dst []NodeID) []NodeID {
	return t.appendEdges(dst, t.nodes[t.start].edge)
}

func (t *Tree) appendEdges(dst []NodeID, n NodeID) []NodeID {
	if n == None {
		return dst
	}
	dst = append(dst, n)
	if t.IsTerminal(n) {
		return dst
	}
	a, b := t.Mates(n)
	dst = t.appendEdges(dst, t.nodes[a].edge)
	return t.appendEdges(dst, t.nodes[b].edge)
}
