package charset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/parsimony/pkg/errors"
)

func TestEncode(t *testing.T) {
	cells, warnings := Encode("01?-{01}(2 3)\nA", EncodeOptions{})
	require.Empty(t, warnings)
	require.Equal(t, []StateSet{
		State(0), State(1), Missing, Inapplicable, Of(0, 1), Of(2, 3), State(10),
	}, cells)
}

func TestEncodeStopsAtSemicolon(t *testing.T) {
	cells, _ := Encode("01;23", EncodeOptions{})
	require.Equal(t, []StateSet{State(0), State(1)}, cells)
}

func TestEncodeSkipsMalformed(t *testing.T) {
	cells, warnings := Encode("0x1{0a}2{}{3", EncodeOptions{})
	require.Equal(t, []StateSet{State(0), State(1), State(2)}, cells)
	require.Len(t, warnings, 4)
	require.Equal(t, "x", warnings[0].Token)
	require.Equal(t, "{0a}", warnings[1].Token)
	require.Equal(t, "empty polymorphism", warnings[2].Reason)
	require.Equal(t, "unterminated polymorphism", warnings[3].Reason)
}

func TestEncodePolymorphismSpansLines(t *testing.T) {
	cells, warnings := Encode("0{1\n2}\n(3,\r\n4)1", EncodeOptions{})
	require.Empty(t, warnings)
	require.Equal(t, []StateSet{State(0), Of(1, 2), Of(3, 4), State(1)}, cells)

	cells, warnings = Encode("{1\n2;3", EncodeOptions{})
	require.Empty(t, cells)
	require.Len(t, warnings, 1)
	require.Equal(t, "unterminated polymorphism", warnings[0].Reason)
	require.Equal(t, "{1\n2", warnings[0].Token)
}

func TestEncodeGapAsMissing(t *testing.T) {
	gap, _ := Encode("-", EncodeOptions{NAAsMissing: true})
	unknown, _ := Encode("?", EncodeOptions{})
	require.Equal(t, unknown, gap)

	gap, _ = Encode("-", EncodeOptions{})
	require.Equal(t, []StateSet{Inapplicable}, gap)
	require.NotEqual(t, unknown, gap)
}

func TestStateSetString(t *testing.T) {
	tests := []struct {
		set  StateSet
		want string
	}{
		{State(0), "0"},
		{State(10), "A"},
		{Of(0, 1), "{01}"},
		{Missing, "?"},
		{Inapplicable, "-"},
		{Inapplicable | State(2), "{-2}"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.set.String())
			cells, warnings := Encode(tt.want, EncodeOptions{})
			require.Empty(t, warnings)
			require.Equal(t, []StateSet{tt.set}, cells)
		})
	}
}

func TestStateSetPredicates(t *testing.T) {
	require.True(t, Missing.IsApplicable())
	require.True(t, Missing.IsInapplicable())
	require.False(t, Inapplicable.IsApplicable())
	require.Equal(t, 2, Of(3, 7).Count())
	require.Equal(t, []int{3, 7}, Of(3, 7).States())
	require.Equal(t, MaxStates, Missing.Count())
}

const table = `4 3;
0 1 -
0 1 ?
1 {01} 1
1 0 1
;`

func TestParseTable(t *testing.T) {
	m, warnings, err := ParseTable(table, EncodeOptions{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, 4, m.NumTaxa())
	require.Equal(t, 3, m.NumChars())
	require.Equal(t, Inapplicable, m.At(0, 2))
	require.Equal(t, Missing, m.At(1, 2))
	require.Equal(t, Of(0, 1), m.At(2, 1))
	require.Equal(t, []string{"1", "2", "3", "4"}, m.Taxa())

	again, _, err := ParseTable(m.String(), EncodeOptions{})
	require.NoError(t, err)
	require.Equal(t, m, again)
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no header terminator", "4 3"},
		{"bad header", "4;"},
		{"non numeric", "a 3; 000;"},
		{"wrong cell count", "2 2; 0 1 1;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTable(tt.input, EncodeOptions{})
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrCodeEncoding))
		})
	}
}

func TestParseCharacterList(t *testing.T) {
	mask, err := ParseCharacterList("1-3 5 9", 6, nil)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, true, false, true, false}, mask)

	mask, err = ParseCharacterList("4-9", 6, nil)
	require.NoError(t, err)
	require.Equal(t, []bool{false, false, false, true, true, true}, mask)

	for _, bad := range []string{"x", "0", "3-1", "2-"} {
		_, err := ParseCharacterList(bad, 6, nil)
		require.Error(t, err, bad)
	}
}

func TestSelectAndInformative(t *testing.T) {
	m, _, err := ParseTable("4 3; 000 001 11? 10-;", EncodeOptions{})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, false}, m.Informative())

	sub, err := m.Select(Invert([]bool{false, true, false}))
	require.NoError(t, err)
	require.Equal(t, 2, sub.NumChars())
	require.Equal(t, []StateSet{State(1), Missing}, sub.Row(2))

	_, err = m.Select(make([]bool, 3))
	require.Error(t, err)
}

func TestSetTaxa(t *testing.T) {
	m, _, err := ParseTable("2 1; 0 1;", EncodeOptions{})
	require.NoError(t, err)
	require.NoError(t, m.SetTaxa([]string{"Alpha", "Beta"}))
	require.Equal(t, 1, m.TaxonIndex("Beta"))
	require.Equal(t, -1, m.TaxonIndex("Gamma"))
	require.Error(t, m.SetTaxa([]string{"Alpha", "Alpha"}))
	require.Error(t, m.SetTaxa([]string{"Alpha"}))
}
