package charset

import (
	"strconv"
	"strings"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// Matrix holds the encoded observations of ntax taxa for nchar characters.
// Cells are stored row-major; Row returns a view into that storage.
type Matrix struct {
	taxa  []string
	nchar int
	cells []StateSet
}

// NewMatrix wraps cells (ntax*nchar values, row-major) in a Matrix. Taxa are
// named "1".."ntax" until SetTaxa is called.
func NewMatrix(ntax, nchar int, cells []StateSet) (*Matrix, error) {
	if ntax <= 0 || nchar <= 0 {
		return nil, errors.New(errors.ErrCodeEncoding, "matrix dimensions must be positive, got %dx%d", ntax, nchar)
	}
	if len(cells) != ntax*nchar {
		return nil, errors.New(errors.ErrCodeEncoding,
			"matrix has %d cells, expected %d (%d taxa x %d characters)", len(cells), ntax*nchar, ntax, nchar)
	}
	taxa := make([]string, ntax)
	for i := range taxa {
		taxa[i] = strconv.Itoa(i + 1)
	}
	return &Matrix{taxa: taxa, nchar: nchar, cells: cells}, nil
}

// NumTaxa returns the number of rows.
func (m *Matrix) NumTaxa() int { return len(m.taxa) }

// NumChars returns the number of columns.
func (m *Matrix) NumChars() int { return m.nchar }

// Taxa returns the taxon labels in row order.
func (m *Matrix) Taxa() []string { return m.taxa }

// SetTaxa replaces the taxon labels. Labels must be unique and valid.
func (m *Matrix) SetTaxa(names []string) error {
	if len(names) != len(m.taxa) {
		return errors.New(errors.ErrCodeInvalidInput, "got %d taxon names for %d taxa", len(names), len(m.taxa))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if err := errors.ValidateTaxonName(n); err != nil {
			return err
		}
		if seen[n] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate taxon name %q", n)
		}
		seen[n] = true
	}
	m.taxa = append([]string(nil), names...)
	return nil
}

// TaxonIndex returns the row of the taxon with the given label, or -1.
func (m *Matrix) TaxonIndex(name string) int {
	for i, n := range m.taxa {
		if n == name {
			return i
		}
	}
	return -1
}

// Row returns the cells of taxon i. The slice aliases matrix storage.
func (m *Matrix) Row(i int) []StateSet {
	return m.cells[i*m.nchar : (i+1)*m.nchar : (i+1)*m.nchar]
}

// At returns the cell for taxon i and character c.
func (m *Matrix) At(i, c int) StateSet { return m.cells[i*m.nchar+c] }

// Set replaces the cell for taxon i and character c.
func (m *Matrix) Set(i, c int, s StateSet) { m.cells[i*m.nchar+c] = s }

// Column copies character c across all taxa.
func (m *Matrix) Column(c int) []StateSet {
	col := make([]StateSet, len(m.taxa))
	for i := range col {
		col[i] = m.At(i, c)
	}
	return col
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		taxa:  append([]string(nil), m.taxa...),
		nchar: m.nchar,
		cells: append([]StateSet(nil), m.cells...),
	}
}

// Select returns a matrix restricted to the characters whose include flag is
// set. It fails if no character remains.
func (m *Matrix) Select(include []bool) (*Matrix, error) {
	var keep []int
	for c := 0; c < m.nchar && c < len(include); c++ {
		if include[c] {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "all %d characters excluded", m.nchar)
	}
	cells := make([]StateSet, 0, len(m.taxa)*len(keep))
	for i := range m.taxa {
		for _, c := range keep {
			cells = append(cells, m.At(i, c))
		}
	}
	return &Matrix{taxa: append([]string(nil), m.taxa...), nchar: len(keep), cells: cells}, nil
}

// Informative flags characters that can discriminate between topologies:
// at least two states each observed, unambiguously, in at least two taxa.
func (m *Matrix) Informative() []bool {
	out := make([]bool, m.nchar)
	for c := 0; c < m.nchar; c++ {
		var counts [MaxStates]int
		for i := range m.taxa {
			s := m.At(i, c)
			if s.IsInapplicable() || s.Count() != 1 {
				continue
			}
			counts[s.States()[0]]++
		}
		common := 0
		for _, n := range counts {
			if n >= 2 {
				common++
			}
		}
		out[c] = common >= 2
	}
	return out
}

// String renders the matrix in table format.
func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(m.taxa)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(m.nchar))
	b.WriteString(";\n")
	for i := range m.taxa {
		for _, s := range m.Row(i) {
			b.WriteString(s.String())
		}
		b.WriteByte('\n')
	}
	b.WriteString(";\n")
	return b.String()
}
