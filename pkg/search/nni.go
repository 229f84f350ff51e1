package search

import (
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// nni tries both interchanges across every internal edge of t. An improving
// interchange is kept and ends the traversal.
func (s *searcher) nni(t *tree.Tree) (step, error) {
	top := t.Edge(t.Start())
	if t.IsTerminal(top) {
		return proceed, nil
	}
	a, b := t.Mates(top)
	for _, m := range [2]tree.NodeID{a, b} {
		if st, err := s.nniBelow(t, t.Edge(m)); st == halt || err != nil {
			return halt, err
		}
	}
	return proceed, nil
}

// nniBelow handles the edge above the bottom slot n, then the edges below it.
func (s *searcher) nniBelow(t *tree.Tree, n tree.NodeID) (step, error) {
	if t.IsTerminal(n) {
		return proceed, nil
	}
	other, _ := t.Mates(t.Edge(n))
	a, b := t.Mates(n)
	for _, child := range [2]tree.NodeID{a, b} {
		if err := s.tick(); err != nil {
			return halt, err
		}
		if err := t.Swap(child, other); err != nil {
			return halt, err
		}
		length, err := fitch.Score(t, s.m)
		if err != nil {
			return halt, err
		}
		better, err := s.consider(t, length)
		if better {
			return halt, err
		}
		if serr := t.Swap(child, other); serr != nil {
			return halt, serr
		}
		if err != nil {
			return halt, err
		}
	}
	for _, child := range [2]tree.NodeID{a, b} {
		if st, err := s.nniBelow(t, t.Edge(child)); st == halt || err != nil {
			return halt, err
		}
	}
	return proceed, nil
}
