package charset

import (
	"math/bits"
	"strings"
)

// StateSet is the set of states a taxon (or an optimized node) may take for
// one character.
type StateSet uint32

const (
	// Inapplicable flags a character that cannot logically exist for a taxon.
	Inapplicable StateSet = 1

	// Applicable masks every observable state bit.
	Applicable StateSet = ^Inapplicable

	// Missing is unobserved data: every state and the inapplicable flag.
	Missing StateSet = ^StateSet(0)

	// MaxStates is the number of distinct observable states.
	MaxStates = 31
)

const symbols = "0123456789ABCDEFGHIJKLMNOPQRSTU"

// State returns the set holding only observed state i.
// It panics if i is outside [0, MaxStates).
func State(i int) StateSet {
	if i < 0 || i >= MaxStates {
		panic("charset: state out of range")
	}
	return 1 << (i + 1)
}

// Of returns the union of the given states.
func Of(states ...int) StateSet {
	var s StateSet
	for _, i := range states {
		s |= State(i)
	}
	return s
}

// IsApplicable reports whether s holds at least one observable state.
func (s StateSet) IsApplicable() bool { return s&Applicable != 0 }

// IsInapplicable reports whether s carries the inapplicable flag.
func (s StateSet) IsInapplicable() bool { return s&Inapplicable != 0 }

// IsMissing reports whether s is the missing value.
func (s StateSet) IsMissing() bool { return s == Missing }

// Count returns the number of observable states in s.
func (s StateSet) Count() int { return bits.OnesCount32(uint32(s & Applicable)) }

// States lists the observable states in ascending order.
func (s StateSet) States() []int {
	var out []int
	for v := uint32(s & Applicable); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros32(v)-1)
	}
	return out
}

// String renders s in the token syntax read by [Encode].
func (s StateSet) String() string {
	switch {
	case s == Missing:
		return "?"
	case s == Inapplicable:
		return "-"
	case s == 0:
		return "{}"
	}
	states := s.States()
	if len(states) == 1 && !s.IsInapplicable() {
		return string(symbols[states[0]])
	}
	var b strings.Builder
	b.WriteByte('{')
	if s.IsInapplicable() {
		b.WriteByte('-')
	}
	for _, i := range states {
		b.WriteByte(symbols[i])
	}
	b.WriteByte('}')
	return b.String()
}

// symbolState maps a state symbol to its index, or -1.
func symbolState(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'A' && r <= 'U':
		return int(r-'A') + 10
	}
	return -1
}
