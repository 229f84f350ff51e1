package search

import (
	"math"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// spr prunes every subtree of t and tries to regraft it on every edge of the
// remainder. t must be fully scored; an improving move is kept and ends the
// traversal, otherwise t and its state buffers are left as they were.
func (s *searcher) spr(t *tree.Tree) (step, error) {
	// The root ring's final buffer survives unrooting and is the ancestor
	// set of the ring next to the start terminal.
	anc := t.Final(t.RootSlots()[0], s.nchar)
	return s.pruneBelow(t, t.Edge(t.Start()), anc, t.Length)
}

// pruneBelow visits the rings under the bottom slot n in postorder and tries
// to move both subtrees hanging from n's ring. anc is the final set of the
// ring's parent.
func (s *searcher) pruneBelow(t *tree.Tree, n tree.NodeID, anc []charset.StateSet, length int) (step, error) {
	if t.IsTerminal(n) {
		return proceed, nil
	}
	fin := t.Final(n, s.nchar)
	a, b := t.Mates(n)
	for _, m := range [2]tree.NodeID{a, b} {
		if st, err := s.pruneBelow(t, t.Edge(m), fin, length); st == halt || err != nil {
			return halt, err
		}
	}
	for _, m := range [2]tree.NodeID{a, b} {
		if st, err := s.move(t, t.Edge(m), n, anc, length); st == halt || err != nil {
			return halt, err
		}
	}
	return proceed, nil
}

// move clips the subtree sub from the ring whose bottom slot is n and offers
// every other position in the remainder.
func (s *searcher) move(t *tree.Tree, sub, n tree.NodeID, anc []charset.StateSet, length int) (step, error) {
	if t.NumTaxa()-t.Weight(sub) < 3 {
		return proceed, nil
	}
	a, b := t.Mates(t.Edge(sub))
	sibling := a
	if sibling == n {
		sibling = b
	}
	up, down := t.Edge(n), t.Edge(sibling)

	// Clipping replaces the ring by the sibling subtree: only characters
	// where the sibling's preliminary set differs from the ring's, or where
	// the ring's final set differs from its parent's, can change.
	chars := fitch.Union(
		fitch.Diff(t.Prelim(n, s.nchar), t.Prelim(down, s.nchar)),
		fitch.Diff(t.Final(n, s.nchar), anc),
	)
	src := t.Prelim(sub, s.nchar)

	c, err := t.Clip(sub)
	if err != nil {
		return halt, err
	}
	t.Invalidate(down)
	if _, err := fitch.Reoptimize(t, s.m, chars); err != nil {
		return halt, err
	}
	diff := fitch.InsertionCost(src, t.Final(up, s.nchar), t.Final(down, s.nchar), math.MaxInt)

	t.SetVisited(up, true)
	t.SetVisited(down, true)
	st, err := s.regraft(t, c, src, length-diff, diff)
	t.SetVisited(up, false)
	t.SetVisited(down, false)
	if st == halt && err == nil {
		return halt, nil
	}

	if rerr := t.Restore(c); rerr != nil {
		return halt, rerr
	}
	t.Invalidate(down)
	if _, rerr := fitch.Reoptimize(t, s.m, chars); rerr != nil {
		return halt, rerr
	}
	return proceed, err
}

// regraft offers the clipped subtree c on every edge of the remainder except
// the one it was clipped from. base is the length of the tree without the
// connection cost of the subtree; when insertion costs are exact, candidates
// costing more than bound cannot reach the replicate's best length and are
// not inserted. Otherwise every candidate is rescored.
func (s *searcher) regraft(t *tree.Tree, c tree.Clip, src []charset.StateSet, base, bound int) (step, error) {
	s.edges = t.AppendEdges(s.edges[:0])
	for _, x := range s.edges {
		y := t.Edge(x)
		if t.Visited(x) && t.Visited(y) {
			continue
		}
		if err := s.tick(); err != nil {
			return halt, err
		}
		length := base + fitch.InsertionCost(src, t.Final(x, s.nchar), t.Final(y, s.nchar), bound)
		if s.exact && length > s.state.BestInReplicate {
			continue
		}
		if err := t.Insert(c, x); err != nil {
			return halt, err
		}
		if !s.exact {
			var err error
			if length, err = s.verify(t); err != nil {
				return halt, err
			}
		}
		better, err := s.consider(t, length)
		if better {
			return halt, err
		}
		if _, cerr := t.Clip(c.Subtree); cerr != nil {
			return halt, cerr
		}
		if err != nil {
			return halt, err
		}
	}
	return proceed, nil
}
