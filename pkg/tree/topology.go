package tree

import (
	"fmt"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// Edge connects two vertices of a [Topology].
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Topology is a plain edge list. Vertices 0..NumTaxa-1 are the taxa; any
// other non-negative integer names an internal vertex.
type Topology struct {
	NumTaxa int    `json:"num_taxa"`
	Edges   []Edge `json:"edges"`
}

// ErrInvalidTopology is returned by [FromTopology] for edge lists that do not
// describe a tree over all taxa.
var ErrInvalidTopology = errors.New(errors.ErrCodeInvalidTree, "invalid topology")

// FromTopology builds a tree from an edge list.
//
// Internal vertices of degree two are suppressed, so a rooted topology is
// accepted and unrooted. Vertices of degree four or more are resolved into a
// comb, keeping their neighbors in edge-list order; the resolution is
// arbitrary but repeatable.
func FromTopology(tp Topology) (*Tree, error) {
	t, err := New(tp.NumTaxa)
	if err != nil {
		return nil, err
	}
	adj := make(map[int][]int)
	for _, e := range tp.Edges {
		if e.A < 0 || e.B < 0 || e.A == e.B {
			return nil, fmt.Errorf("edge %d-%d: %w", e.A, e.B, ErrInvalidTopology)
		}
		adj[e.A] = append(adj[e.A], e.B)
		adj[e.B] = append(adj[e.B], e.A)
	}
	for i := 0; i < tp.NumTaxa; i++ {
		if len(adj[i]) != 1 {
			return nil, fmt.Errorf("taxon %d has degree %d: %w", i, len(adj[i]), ErrInvalidTopology)
		}
	}
	if len(tp.Edges) != len(adj)-1 {
		return nil, fmt.Errorf("%d edges for %d vertices: %w", len(tp.Edges), len(adj), ErrInvalidTopology)
	}

	b := builder{t: t, adj: adj, seen: make(map[int]bool)}
	b.seen[0] = true
	top, err := b.vertex(adj[0][0], 0)
	if err != nil {
		return nil, err
	}
	t.link(t.Terminal(0), top)
	if len(b.seen) != len(adj) {
		return nil, fmt.Errorf("topology is disconnected: %w", ErrInvalidTopology)
	}
	return t, nil
}

type builder struct {
	t    *Tree
	adj  map[int][]int
	seen map[int]bool
}

// vertex builds the subtree at v entered from parent and returns the node to
// join to the parent side.
func (b *builder) vertex(v, parent int) (NodeID, error) {
	if b.seen[v] {
		return None, fmt.Errorf("cycle through vertex %d: %w", v, ErrInvalidTopology)
	}
	b.seen[v] = true
	if v < b.t.ntax {
		return b.t.Terminal(v), nil
	}
	var children []int
	for _, w := range b.adj[v] {
		if w != parent {
			children = append(children, w)
		}
	}
	if len(children) == 0 {
		return None, fmt.Errorf("internal vertex %d is a leaf: %w", v, ErrInvalidTopology)
	}
	if len(children) == 1 {
		return b.vertex(children[0], v)
	}
	return b.comb(children, v)
}

// comb joins the subtrees of children under a chain of rings.
func (b *builder) comb(children []int, v int) (NodeID, error) {
	first, err := b.vertex(children[0], v)
	if err != nil {
		return None, err
	}
	var second NodeID
	if len(children) == 2 {
		second, err = b.vertex(children[1], v)
	} else {
		second, err = b.comb(children[1:], v)
	}
	if err != nil {
		return None, err
	}
	r, err := b.t.NewRing()
	if err != nil {
		return None, fmt.Errorf("more internal vertices than a binary tree allows: %w", err)
	}
	s := b.t.rings[r].slots
	b.t.link(s[1], first)
	b.t.link(s[2], second)
	return s[0], nil
}

// Topology returns the edge list of t. Internal vertices are numbered from
// NumTaxa upward in preorder from the start terminal.
func (t *Tree) Topology() Topology {
	tp := Topology{NumTaxa: t.ntax}
	top := t.Neighbor(t.start)
	if top == None {
		return tp
	}
	next := t.ntax
	var walk func(n NodeID, parent int)
	walk = func(n NodeID, parent int) {
		if t.IsTerminal(n) {
			tp.Edges = append(tp.Edges, Edge{A: parent, B: int(n)})
			return
		}
		id := next
		next++
		tp.Edges = append(tp.Edges, Edge{A: parent, B: id})
		a, b := t.Mates(n)
		walk(t.Neighbor(a), id)
		walk(t.Neighbor(b), id)
	}
	walk(top, int(t.start))
	return tp
}

// Validate checks the structural invariants of an unrooted tree: symmetric
// edges, every terminal and in-use ring slot connected, unused rings detached,
// and every node reachable from the start terminal.
func (t *Tree) Validate() error {
	if t.root != None {
		return ErrRooted
	}
	for i := range t.nodes {
		n := NodeID(i)
		e := t.nodes[i].edge
		if e != None && t.nodes[e].edge != n {
			return errors.New(errors.ErrCodeStructural, "edge %d-%d is not symmetric", n, e)
		}
		r := t.nodes[i].ring
		inUse := r < 0 || (int(r) != t.rootRing && t.rings[r].used)
		if inUse && e == None {
			return fmt.Errorf("node %d: %w", n, ErrDisconnected)
		}
		if !inUse && e != None {
			return errors.New(errors.ErrCodeStructural, "node %d of an unused ring is connected", n)
		}
	}
	if used := t.RingsInUse(); used != t.ntax-2 {
		return errors.New(errors.ErrCodeStructural, "%d rings in use, a binary tree over %d taxa needs %d", used, t.ntax, t.ntax-2)
	}

	seen := make([]bool, len(t.nodes))
	stack := []NodeID{t.start}
	count := 0
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		count++
		if e := t.nodes[n].edge; e != None {
			stack = append(stack, e)
		}
		if r := t.nodes[n].ring; r >= 0 {
			for _, s := range t.rings[r].slots {
				if !seen[s] {
					stack = append(stack, s)
				}
			}
		}
	}
	if want := t.ntax + 3*(t.ntax-2); count != want {
		return errors.New(errors.ErrCodeStructural, "%d of %d nodes reachable from the start terminal", count, want)
	}
	return nil
}
