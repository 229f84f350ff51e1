package pipeline

import (
	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/newick"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// LoadMatrix decodes opts.Matrix, names its taxa and applies opts.Exclude.
// Skipped tokens are returned as warnings; a wrong cell count is an error.
func LoadMatrix(opts Options) (*charset.Matrix, []charset.Warning, error) {
	m, warnings, err := charset.ParseTable(opts.Matrix, charset.EncodeOptions{
		NAAsMissing: opts.NAAsMissing,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, warnings, err
	}
	if len(opts.Taxa) > 0 {
		if err := m.SetTaxa(opts.Taxa); err != nil {
			return nil, warnings, err
		}
	}
	if opts.Exclude != "" {
		excluded, err := charset.ParseCharacterList(opts.Exclude, m.NumChars(), opts.Logger)
		if err != nil {
			return nil, warnings, err
		}
		if m, err = m.Select(charset.Invert(excluded)); err != nil {
			return nil, warnings, err
		}
	}
	if m.NumTaxa() < 3 {
		return nil, warnings, errors.New(errors.ErrCodeInvalidInput, "need at least 3 taxa, matrix has %d", m.NumTaxa())
	}
	return m, warnings, nil
}

// LoadTree reads opts.Tree against the taxa of m. It returns nil when no
// tree was given.
func LoadTree(opts Options, m *charset.Matrix) (*tree.Tree, error) {
	if opts.Tree == "" {
		return nil, nil
	}
	return newick.Parse(opts.Tree, m.Taxa())
}

func warningStrings(ws []charset.Warning) []string {
	if len(ws) == 0 {
		return nil
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
