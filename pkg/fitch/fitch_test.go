package fitch

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/newick"
	"github.com/matzehuels/parsimony/pkg/tree"
)

func mustTable(t *testing.T, text string, naAsMissing bool) *charset.Matrix {
	t.Helper()
	m, warnings, err := charset.ParseTable(text, charset.EncodeOptions{NAAsMissing: naAsMissing})
	require.NoError(t, err)
	require.Empty(t, warnings)
	return m
}

func mustTree(t *testing.T, s string) *tree.Tree {
	t.Helper()
	tr, err := newick.Parse(s, nil)
	require.NoError(t, err)
	return tr
}

func randomMatrix(rng *rand.Rand, ntax, nchar int, gaps bool) *charset.Matrix {
	cells := make([]charset.StateSet, ntax*nchar)
	for i := range cells {
		cells[i] = randomCell(rng, gaps)
	}
	m, err := charset.NewMatrix(ntax, nchar, cells)
	if err != nil {
		panic(err)
	}
	return m
}

func randomCell(rng *rand.Rand, gaps bool) charset.StateSet {
	if !gaps {
		return charset.State(rng.IntN(4))
	}
	switch r := rng.IntN(20); {
	case r == 0:
		return charset.Missing
	case r < 3:
		return charset.Inapplicable
	case r == 3:
		return charset.Of(rng.IntN(2), 2+rng.IntN(2))
	default:
		return charset.State(rng.IntN(4))
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name  string
		l, r  charset.StateSet
		want  charset.StateSet
		steps int
	}{
		{"overlap", charset.Of(0, 1), charset.Of(1, 2), charset.State(1), 0},
		{"disjoint", charset.State(0), charset.State(1), charset.Of(0, 1), 1},
		{"both inapplicable", charset.Inapplicable, charset.Inapplicable, charset.Inapplicable, 0},
		{"one inapplicable", charset.Inapplicable, charset.State(0), charset.Inapplicable | charset.State(0), 0},
		{"mixed sides disjoint", charset.Inapplicable | charset.State(0), charset.State(1), charset.Of(0, 1), 1},
		{"missing", charset.Missing, charset.State(3), charset.State(3), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, steps := combine(tt.l, tt.r)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.steps, steps)
		})
	}
}

func TestScoreQuartet(t *testing.T) {
	m := mustTable(t, "4 1; 0 0 1 1;", false)

	grouped := mustTree(t, "((1,2),(3,4));")
	length, err := Score(grouped, m)
	require.NoError(t, err)
	require.Equal(t, 1, length)
	require.Equal(t, 1, grouped.Length)
	require.False(t, grouped.Rooted())

	crossed := mustTree(t, "((1,3),(2,4));")
	length, err = Score(crossed, m)
	require.NoError(t, err)
	require.Equal(t, 2, length)
}

func TestScoreIndependentOfStart(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	m := randomMatrix(rng, 9, 25, false)
	tr, err := tree.Random(9, rng)
	require.NoError(t, err)
	want, err := Score(tr, m)
	require.NoError(t, err)
	for i := 1; i < 9; i++ {
		require.NoError(t, tr.SetStart(tr.Terminal(i)))
		got, err := Score(tr, m)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestInapplicableVersusMissing(t *testing.T) {
	tr := mustTree(t, "((1,2),(3,4));")

	inapplicable := mustTable(t, "4 1; 0 - 1 -;", false)
	length, err := Score(tr, inapplicable)
	require.NoError(t, err)
	require.Equal(t, 0, length)

	missing := mustTable(t, "4 1; 0 - 1 -;", true)
	length, err = Score(tr, missing)
	require.NoError(t, err)
	require.Equal(t, 1, length)

	// '-' read as missing is indistinguishable from '?'.
	question := mustTable(t, "4 1; 0 ? 1 ?;", false)
	require.Equal(t, question, missing)

	// Two inapplicable sisters keep the flag in their parent.
	allGap := mustTable(t, "4 1; - - 0 1;", false)
	require.NoError(t, tr.TempRoot(tr.Terminal(2)))
	length, err = Score(tr, allGap)
	require.NoError(t, err)
	require.Equal(t, 1, length)
	a, b := tr.Mates(tr.Edge(tr.Terminal(0)))
	bottom := a
	if tr.Edge(a) == tr.Terminal(1) {
		bottom = b
	}
	require.Equal(t, charset.Inapplicable, tr.Prelim(bottom, 1)[0])
	require.NoError(t, tr.Unroot())
}

func TestStepsAndIndices(t *testing.T) {
	m := mustTable(t, "4 2; 00 01 10 11;", false)
	tr := mustTree(t, "((1,2),(3,4));")
	steps, err := Steps(tr, m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, steps)
	require.Equal(t, 3, tr.Length)

	ix := ComputeIndices(m, steps)
	require.Equal(t, 3, ix.Length)
	require.Equal(t, 2, ix.MinimumSteps)
	require.Equal(t, 4, ix.MaximumSteps)
	require.InDelta(t, 2.0/3.0, ix.CI, 1e-9)
	require.InDelta(t, 0.5, ix.RI, 1e-9)
}

func TestScoreRejectsMismatchedMatrix(t *testing.T) {
	_, err := Score(mustTree(t, "((1,2),(3,4));"), mustTable(t, "3 1; 0 0 1;", false))
	require.Error(t, err)
}

func TestScoreOpenRing(t *testing.T) {
	tr := mustTree(t, "((1,2),(3,4));")
	_, err := tr.Disconnect(tr.Terminal(3))
	require.NoError(t, err)
	_, err = Score(tr, mustTable(t, "4 1; 0 0 1 1;", false))
	require.ErrorIs(t, err, ErrOpenRing)
	require.False(t, tr.Rooted())
}

// connected lists the nodes of the tree proper.
func connected(tr *tree.Tree) []tree.NodeID {
	var out []tree.NodeID
	for n := tree.NodeID(0); int(n) < tr.NumNodes(); n++ {
		if tr.Edge(n) != tree.None {
			out = append(out, n)
		}
	}
	return out
}

func TestReoptimizeMatchesFullPass(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for round := 0; round < 10; round++ {
		ntax, nchar := 5+rng.IntN(8), 40
		m := randomMatrix(rng, ntax, nchar, true)
		tr, err := tree.Random(ntax, rng)
		require.NoError(t, err)
		_, err = Score(tr, m)
		require.NoError(t, err)

		for step := 0; step < 5; step++ {
			var chars Changing
			for c := 0; c < nchar; c++ {
				if rng.IntN(4) == 0 {
					chars = append(chars, c)
					for i := 0; i < ntax; i++ {
						if rng.IntN(3) == 0 {
							m.Set(i, c, randomCell(rng, true))
						}
					}
				}
			}
			partial, err := Reoptimize(tr, m, chars)
			require.NoError(t, err)

			fresh := tr.Copy()
			steps, err := Steps(fresh, m)
			require.NoError(t, err)
			want := 0
			for _, c := range chars {
				want += steps[c]
			}
			require.Equal(t, want, partial)

			for _, n := range connected(tr) {
				require.Equal(t, fresh.Prelim(n, nchar), tr.Prelim(n, nchar), "prelim of node %d", n)
				require.Equal(t, fresh.Final(n, nchar), tr.Final(n, nchar), "final of node %d", n)
			}
		}
	}
}

// bottomSlots lists the internal nodes a pass from the start terminal
// enters through their parent edge.
func bottomSlots(tr *tree.Tree) []tree.NodeID {
	var out []tree.NodeID
	var walk func(n tree.NodeID)
	walk = func(n tree.NodeID) {
		if tr.IsTerminal(n) {
			return
		}
		out = append(out, n)
		a, b := tr.Mates(n)
		walk(tr.Edge(a))
		walk(tr.Edge(b))
	}
	walk(tr.Edge(tr.Start()))
	return out
}

// requireSameBuffers compares the buffers of every node reachable from the
// start terminal.
func requireSameBuffers(t *testing.T, want, got *tree.Tree, nchar int, msg string) {
	t.Helper()
	nodes := got.AppendEdges([]tree.NodeID{got.Start(), got.RootSlots()[0]})
	for _, n := range nodes {
		require.Equal(t, want.Prelim(n, nchar), got.Prelim(n, nchar), "%s: prelim of node %d", msg, n)
		require.Equal(t, want.Final(n, nchar), got.Final(n, nchar), "%s: final of node %d", msg, n)
	}
}

func TestReoptimizeAcrossClipAndRestore(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	for round := 0; round < 20; round++ {
		ntax, nchar := 6+rng.IntN(4), 30
		m := randomMatrix(rng, ntax, nchar, round%2 == 1)
		tr, err := tree.Random(ntax, rng)
		require.NoError(t, err)
		_, err = Score(tr, m)
		require.NoError(t, err)
		want := tr.Copy()
		_, err = Score(want, m)
		require.NoError(t, err)

		for _, n := range bottomSlots(tr) {
			a, b := tr.Mates(n)
			sub, down := tr.Edge(a), tr.Edge(b)
			if ntax-tr.Weight(sub) < 3 {
				continue
			}

			c, err := tr.Clip(sub)
			require.NoError(t, err)
			tr.Invalidate(down)
			_, err = Reoptimize(tr, m, All(nchar))
			require.NoError(t, err)
			require.False(t, tr.Stale(down))

			fresh := tr.Copy()
			_, err = Score(fresh, m)
			require.NoError(t, err)
			requireSameBuffers(t, fresh, tr, nchar, "clipped")

			require.NoError(t, tr.Restore(c))
			tr.Invalidate(down)
			_, err = Reoptimize(tr, m, All(nchar))
			require.NoError(t, err)
			requireSameBuffers(t, want, tr, nchar, "restored")
		}
	}
}

func TestReoptimizeEmptySetIsNoop(t *testing.T) {
	partial, err := Reoptimize(mustTree(t, "((1,2),(3,4));"), mustTable(t, "4 1; 0 0 1 1;", false), nil)
	require.NoError(t, err)
	require.Zero(t, partial)
}

func TestChangingSets(t *testing.T) {
	a := []charset.StateSet{1, 2, 4, 8}
	b := []charset.StateSet{1, 3, 4, 9}
	require.Equal(t, Changing{1, 3}, Diff(a, b))
	require.Equal(t, Changing{0, 1, 3, 5}, Union(Changing{1, 3}, Changing{0, 3, 5}))
	require.Equal(t, Changing{0, 1, 2}, All(3))
	require.Empty(t, Union(nil, nil))
}

func TestInsertionCost(t *testing.T) {
	src := []charset.StateSet{charset.State(0), charset.State(1), charset.State(2), charset.Of(0, 3)}
	a := []charset.StateSet{charset.State(0), charset.State(0), charset.State(0), charset.State(1)}
	b := []charset.StateSet{charset.State(1), charset.State(0), charset.State(2), charset.State(2)}
	require.Equal(t, 2, InsertionCost(src, a, b, 10))
	require.Equal(t, 1, InsertionCost(src, a, b, 0))
}
