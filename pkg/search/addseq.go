package search

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// AddSeq names the taxon order used to build starting trees.
type AddSeq string

const (
	AddAsIs   AddSeq = "asis"
	AddRandom AddSeq = "random"
)

// ParseAddSeq converts an addition sequence name, case-insensitively.
func ParseAddSeq(s string) (AddSeq, error) {
	switch a := AddSeq(strings.ToLower(strings.TrimSpace(s))); a {
	case AddAsIs, AddRandom:
		return a, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown addition sequence %q (want asis or random)", s)
}

// Order returns the taxon order of a for ntax taxa. Random orders are a
// function of seed.
func (a AddSeq) Order(ntax int, seed uint64) []int {
	if a == AddRandom {
		return rand.New(rand.NewPCG(seed, seed^0xdeadbeef)).Perm(ntax)
	}
	order := make([]int, ntax)
	for i := range order {
		order[i] = i
	}
	return order
}

// StepwiseAddition builds a tree by adding taxa in the given order, each on
// the edge where it costs the fewest extra steps. Ties go to the first such
// edge in preorder from the first taxon. The result is fully scored and
// traversed from taxon 0.
func StepwiseAddition(m *charset.Matrix, order []int) (*tree.Tree, error) {
	ntax, nchar := m.NumTaxa(), m.NumChars()
	if err := checkOrder(order, ntax); err != nil {
		return nil, err
	}
	t, err := tree.New(ntax)
	if err != nil {
		return nil, err
	}
	if err := t.Seed(order[0], order[1], order[2]); err != nil {
		return nil, err
	}
	if err := t.SetStart(t.Terminal(order[0])); err != nil {
		return nil, err
	}

	var edges []tree.NodeID
	for _, taxon := range order[3:] {
		if _, err := fitch.Score(t, m); err != nil {
			return nil, err
		}
		raw := m.Row(taxon)
		best, bestCost := tree.None, math.MaxInt
		edges = t.AppendEdges(edges[:0])
		for _, x := range edges {
			cost := fitch.InsertionCost(raw, t.Final(x, nchar), t.Final(t.Edge(x), nchar), bestCost)
			if cost < bestCost {
				best, bestCost = x, cost
			}
		}
		if _, err := t.Graft(t.Terminal(taxon), best); err != nil {
			return nil, err
		}
	}

	if err := t.SetStart(t.Terminal(0)); err != nil {
		return nil, err
	}
	if _, err := fitch.Score(t, m); err != nil {
		return nil, err
	}
	return t, nil
}

func checkOrder(order []int, ntax int) error {
	if len(order) != ntax {
		return errors.New(errors.ErrCodeInvalidInput, "addition order lists %d taxa, matrix has %d", len(order), ntax)
	}
	seen := make([]bool, ntax)
	for _, i := range order {
		if i < 0 || i >= ntax || seen[i] {
			return errors.New(errors.ErrCodeInvalidInput, "addition order is not a permutation of the taxa")
		}
		seen[i] = true
	}
	return nil
}
