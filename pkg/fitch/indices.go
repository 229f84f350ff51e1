package fitch

import "github.com/matzehuels/parsimony/pkg/charset"

// Indices summarizes how well a tree fits the characters of a matrix.
type Indices struct {
	Length       int     `json:"length"`
	MinimumSteps int     `json:"minimum_steps"`
	MaximumSteps int     `json:"maximum_steps"`
	CI           float64 `json:"ci"`
	RI           float64 `json:"ri"`
}

// ComputeIndices derives the ensemble consistency index (CI) and retention
// index (RI) from per-character steps. Bounds are taken over taxa coded with a
// single applicable state; polymorphic, missing and inapplicable cells are
// ignored.
func ComputeIndices(m *charset.Matrix, steps []int) Indices {
	var ix Indices
	for c := 0; c < m.NumChars(); c++ {
		var counts [charset.MaxStates]int
		coded := 0
		for i := 0; i < m.NumTaxa(); i++ {
			s := m.At(i, c)
			if s.IsInapplicable() || s.Count() != 1 {
				continue
			}
			counts[s.States()[0]]++
			coded++
		}
		distinct, most := 0, 0
		for _, n := range counts {
			if n > 0 {
				distinct++
			}
			most = max(most, n)
		}
		if distinct > 0 {
			ix.MinimumSteps += distinct - 1
		}
		ix.MaximumSteps += coded - most
		ix.Length += steps[c]
	}

	ix.CI, ix.RI = 1, 1
	if ix.Length > 0 {
		ix.CI = float64(ix.MinimumSteps) / float64(ix.Length)
	}
	if ix.MaximumSteps > ix.MinimumSteps {
		ix.RI = float64(ix.MaximumSteps-ix.Length) / float64(ix.MaximumSteps-ix.MinimumSteps)
	}
	return ix
}
