package tree

import "math/rand/v2"

// Random builds a uniformly grown random topology: taxa are added in a random
// order, each onto a randomly chosen edge.
func Random(ntax int, rng *rand.Rand) (*Tree, error) {
	t, err := New(ntax)
	if err != nil {
		return nil, err
	}
	order := rng.Perm(ntax)
	if err := t.Seed(order[0], order[1], order[2]); err != nil {
		return nil, err
	}
	var targets []NodeID
	for _, taxon := range order[3:] {
		targets = targets[:0]
		for i := range t.nodes {
			if t.nodes[i].edge != None {
				targets = append(targets, NodeID(i))
			}
		}
		if _, err := t.Graft(t.Terminal(taxon), targets[rng.IntN(len(targets))]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
