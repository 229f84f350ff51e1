package charset

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// ParseCharacterList reads a list of 1-based character numbers and inclusive
// ranges, such as "1-5 8 17", into a mask of length nchar. Numbers beyond nchar
// are truncated with a warning on logger (which may be nil).
func ParseCharacterList(list string, nchar int, logger *log.Logger) ([]bool, error) {
	mask := make([]bool, nchar)
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	for _, f := range fields {
		lo, hi, err := parseRange(f)
		if err != nil {
			return nil, err
		}
		if hi > nchar {
			if logger != nil {
				logger.Warn("character list exceeds matrix, truncating", "item", f, "nchar", nchar)
			}
			hi = nchar
		}
		for c := lo; c <= hi; c++ {
			mask[c-1] = true
		}
	}
	return mask, nil
}

func parseRange(f string) (lo, hi int, err error) {
	a, b, isRange := strings.Cut(f, "-")
	if lo, err = strconv.Atoi(a); err != nil || lo < 1 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid character number %q", f)
	}
	if !isRange {
		return lo, lo, nil
	}
	if hi, err = strconv.Atoi(b); err != nil || hi < lo {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid character range %q", f)
	}
	return lo, hi, nil
}

// Invert flips every flag of mask, turning an exclusion list into an include
// mask for [Matrix.Select].
func Invert(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, v := range mask {
		out[i] = !v
	}
	return out
}
