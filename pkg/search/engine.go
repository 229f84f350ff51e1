package search

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/observability"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// searcher holds what every rearrangement traversal of one search shares.
type searcher struct {
	ctx    context.Context
	m      *charset.Matrix
	nchar  int
	opts   Options
	state  *State
	buf    *Buffer
	logger *log.Logger
	hooks  observability.SearchHooks

	// exact is set when local insertion costs equal full rescoring.
	exact   bool
	scratch *tree.Tree
	edges   []tree.NodeID
}

func newSearcher(ctx context.Context, m *charset.Matrix, opts Options, buf *Buffer) *searcher {
	return &searcher{
		ctx:    ctx,
		m:      m,
		nchar:  m.NumChars(),
		opts:   opts,
		state:  &State{},
		buf:    buf,
		logger: opts.Logger,
		hooks:  observability.Search(),
		exact:  exactInsertion(m),
	}
}

// exactInsertion reports whether m is free of inapplicable and polymorphic
// codings. Missing cells carry the inapplicable bit too but behave as plain
// Fitch sets. A polymorphic terminal's final set is narrowed to the states it
// shares with its ancestor, which the union of finals does not account for.
func exactInsertion(m *charset.Matrix) bool {
	for i := 0; i < m.NumTaxa(); i++ {
		for _, s := range m.Row(i) {
			if s.IsMissing() {
				continue
			}
			if s.IsInapplicable() || s.Count() > 1 {
				return false
			}
		}
	}
	return true
}

// rearrange applies the configured family to t, a fully scored tree.
func (s *searcher) rearrange(t *tree.Tree) error {
	var err error
	switch s.opts.Method {
	case NNI:
		_, err = s.nni(t)
	default:
		_, err = s.spr(t)
	}
	return err
}

// tick counts one rearrangement, failing once the ceiling is reached.
func (s *searcher) tick() error {
	if ceiling := s.opts.Limits.MaxRearrangements; ceiling > 0 && s.state.Rearrangements >= ceiling {
		return ErrRearrangementLimit
	}
	s.state.Rearrangements++
	return nil
}

// consider offers t, currently of the given length, to the buffer. It
// reports whether t improved on the replicate's best length; in that case
// the caller must stop its traversal and leave t as it is.
func (s *searcher) consider(t *tree.Tree, length int) (bool, error) {
	st := s.state
	switch {
	case length < st.BestInReplicate:
		st.FoundBetter = true
		st.Improvements++
		st.BestInReplicate = length
		if length < st.Best {
			st.Best = length
			st.RangeStart = 0
		}
		s.buf.Truncate(st.RangeStart)
		s.hooks.OnImprovement(s.ctx, string(s.opts.Method), length)
		s.logger.Debug("shorter tree", "length", length, "replicate", st.Replicate+1, "rearrangements", st.Rearrangements)
		cp := t.Copy()
		cp.Length = length
		_, err := s.buf.Add(cp, st.RangeStart)
		return true, err
	case length == st.BestInReplicate:
		splits := t.Bipartitions()
		if s.buf.Contains(splits, st.RangeStart) {
			return false, nil
		}
		cp := t.Copy()
		cp.Length = length
		return false, s.buf.push(cp, splits)
	}
	return false, nil
}

// verify scores a copy of t with a full pass, leaving t's buffers alone.
func (s *searcher) verify(t *tree.Tree) (int, error) {
	if s.scratch == nil {
		s.scratch = t.Copy()
	} else if err := t.CopyInto(s.scratch); err != nil {
		return 0, err
	}
	return fitch.Score(s.scratch, s.m)
}
