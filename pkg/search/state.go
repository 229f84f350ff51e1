package search

import (
	"strings"

	"github.com/matzehuels/parsimony/pkg/errors"
)

// Method selects the rearrangement family.
type Method string

const (
	NNI Method = "nni"
	SPR Method = "spr"
)

// ParseMethod converts a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case NNI, SPR:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMethod, "unknown rearrangement method %q (want nni or spr)", s)
}

// StopReason tells why a search ended.
type StopReason string

const (
	StopConverged          StopReason = "converged"
	StopTreeLimit          StopReason = "tree_limit"
	StopRearrangementLimit StopReason = "rearrangement_limit"
)

// AtLimit reports whether the search ended at a configured ceiling.
func (r StopReason) AtLimit() bool {
	return r == StopTreeLimit || r == StopRearrangementLimit
}

// Limits bounds a search.
type Limits struct {
	MaxTrees          int   // capacity of the tree buffer
	MaxRearrangements int64 // 0 means no ceiling
	Replicates        int   // 0 means one
}

// State is the running record of one search. The controller owns it and
// threads it through every traversal.
type State struct {
	Best            int // shortest length over all replicates
	BestInReplicate int
	Replicate       int
	RangeStart      int // first buffer index of the current replicate
	Rearrangements  int64
	Improvements    int
	FoundBetter     bool
}

// step tells a traversal whether to continue.
type step int

const (
	proceed step = iota
	halt
)
