package tree

import "github.com/matzehuels/parsimony/pkg/charset"

// Prelim returns the preliminary state buffer of n, allocating it on first
// use. For a ring slot the buffer describes the subtree behind its two mates;
// for a terminal it holds the observed states.
func (t *Tree) Prelim(n NodeID, nchar int) []charset.StateSet {
	nd := &t.nodes[n]
	if len(nd.prelim) != nchar {
		nd.prelim = make([]charset.StateSet, nchar)
	}
	return nd.prelim
}

// Final returns the final state buffer of n, allocating it on first use.
// The three slots of a ring share one buffer.
func (t *Tree) Final(n NodeID, nchar int) []charset.StateSet {
	if r := t.nodes[n].ring; r >= 0 {
		rg := &t.rings[r]
		if len(rg.final) != nchar {
			rg.final = make([]charset.StateSet, nchar)
		}
		return rg.final
	}
	nd := &t.nodes[n]
	if len(nd.final) != nchar {
		nd.final = make([]charset.StateSet, nchar)
	}
	return nd.final
}

// Weight returns the number of terminals below n recorded by the last pass.
func (t *Tree) Weight(n NodeID) int { return int(t.nodes[n].weight) }

// SetWeight records the number of terminals below n.
func (t *Tree) SetWeight(n NodeID, w int) { t.nodes[n].weight = int32(w) }

// Visited reports the visited mark of n.
func (t *Tree) Visited(n NodeID) bool { return t.nodes[n].visited }

// SetVisited sets the visited mark of n.
func (t *Tree) SetVisited(n NodeID, v bool) { t.nodes[n].visited = v }

// Clipped reports whether n belongs to a ring detached by [Tree.Clip].
func (t *Tree) Clipped(n NodeID) bool { return t.nodes[n].clipped }

// Converged reports whether the last incremental pass found no change in the
// subtree behind n.
func (t *Tree) Converged(n NodeID) bool { return t.nodes[n].converged }

// SetConverged sets the convergence mark of n and clears its stale mark.
func (t *Tree) SetConverged(n NodeID, v bool) {
	t.nodes[n].converged = v
	t.nodes[n].stale = false
}

// Invalidate marks n stale: its ancestor changed, so the final sets behind
// n no longer follow from its own. The next pass must refine n and its
// children even when no preliminary set below n changed.
func (t *Tree) Invalidate(n NodeID) { t.nodes[n].stale = true }

// Stale reports whether n was invalidated since the last pass reached it.
func (t *Tree) Stale(n NodeID) bool { return t.nodes[n].stale }

// ResetMarks clears the visited, converged and stale marks of every node.
func (t *Tree) ResetMarks() {
	for i := range t.nodes {
		t.nodes[i].visited = false
		t.nodes[i].converged = false
		t.nodes[i].stale = false
	}
}
