package charset

import (
	"strconv"
	"strings"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// ParseMatrix decodes ntax*nchar cells from text. Skipped tokens are returned
// as warnings; a wrong cell count is an ENCODING error.
func ParseMatrix(text string, ntax, nchar int, opts EncodeOptions) (*Matrix, []Warning, error) {
	cells, warnings := Encode(text, opts)
	m, err := NewMatrix(ntax, nchar, cells)
	if err != nil {
		return nil, warnings, err
	}
	return m, warnings, nil
}

// ParseTable decodes the table format:
//
//	4 3;
//	0 1 -
//	0 1 ?
//	1 {01} 1
//	1 0 1
//	;
//
// The header gives the number of taxa and characters.
func ParseTable(text string, opts EncodeOptions) (*Matrix, []Warning, error) {
	head, body, ok := strings.Cut(text, ";")
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeEncoding, "missing ';' after table header")
	}
	fields := strings.Fields(head)
	if len(fields) != 2 {
		return nil, nil, errors.New(errors.ErrCodeEncoding, "table header must be \"<ntax> <nchar>;\", got %q", strings.TrimSpace(head))
	}
	ntax, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeEncoding, err, "invalid taxon count %q", fields[0])
	}
	nchar, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeEncoding, err, "invalid character count %q", fields[1])
	}
	return ParseMatrix(body, ntax, nchar, opts)
}
