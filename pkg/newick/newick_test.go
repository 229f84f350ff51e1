package newick

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/tree"
)

func TestParseFormat(t *testing.T) {
	tr, err := Parse("[&U] (1,(2,3),(4,5));", nil)
	require.NoError(t, err)
	require.NoError(t, tr.Validate())
	require.Equal(t, "[&U] (1,(2,3),(4,5));", Format(tr, nil))
}

func TestParseRootingComment(t *testing.T) {
	for _, in := range []string{"[&R] ((1,2),(3,4));", "[&r]((1,2),(3,4));"} {
		p, err := ParseTopology(in, nil)
		require.NoError(t, err)
		require.True(t, p.Rooted)
	}
	for _, in := range []string{"[&U] ((1,2),(3,4));", "[&u] ((1,2),(3,4));", "((1,2),(3,4));"} {
		p, err := ParseTopology(in, nil)
		require.NoError(t, err)
		require.False(t, p.Rooted)
	}

	rooted, err := Parse("[&R] ((1,2),(3,4));", nil)
	require.NoError(t, err)
	unrooted, err := Parse("[&U] (1,2,(3,4));", nil)
	require.NoError(t, err)
	require.True(t, rooted.Bipartitions().Equal(unrooted.Bipartitions()))
}

func TestParseLabels(t *testing.T) {
	taxa := []string{"Homo sapiens", "Pan", "Gorilla", "Pongo"}
	tr, err := Parse("((Homo_sapiens:0.1,'Pan'):0.2[comment],(Gorilla,4)inner:1e-3);", taxa)
	require.NoError(t, err)
	require.Len(t, tr.Bipartitions(), 1)
	require.Equal(t, "{3,4}", tr.Bipartitions()[0].String())

	out := Format(tr, taxa)
	back, err := Parse(out, taxa)
	require.NoError(t, err)
	require.True(t, tr.Bipartitions().Equal(back.Bipartitions()))
	require.Contains(t, out, "'Homo sapiens'")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		taxa  []string
	}{
		{"no parenthesis", "1,2,3;", nil},
		{"no semicolon", "(1,2,3)", nil},
		{"unbalanced", "((1,2,3);", nil},
		{"empty leaf", "(1,,3);", nil},
		{"duplicate", "(1,2,2);", nil},
		{"unknown name", "(a,b,c);", nil},
		{"number out of range", "(1,2,7);", nil},
		{"missing taxon", "(A,B,C);", []string{"A", "B", "C", "D"}},
		{"bad length", "(1:x,2,3);", nil},
		{"unterminated comment", "[&R (1,2,3);", nil},
		{"unterminated quote", "('1,2,3);", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, tt.taxa)
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrCodeInvalidTree), "got %v", err)
		})
	}
}

func TestPolytomyIsResolved(t *testing.T) {
	tr, err := Parse("(1,2,3,4,5,6);", nil)
	require.NoError(t, err)
	require.NoError(t, tr.Validate())
	require.Len(t, tr.Bipartitions(), 3)
}

func TestFormatRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 25; i++ {
		tr, err := tree.Random(4+rng.IntN(12), rng)
		require.NoError(t, err)
		back, err := Parse(Format(tr, nil), nil)
		require.NoError(t, err)
		require.True(t, tr.Bipartitions().Equal(back.Bipartitions()))
	}
}
