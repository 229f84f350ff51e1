package search

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// Options configures [Run].
type Options struct {
	Method Method // defaults to SPR
	Limits Limits
	AddSeq AddSeq // starting trees of the first replicate; later ones are random
	Seed   uint64
	Logger *log.Logger // nil discards
}

func (o *Options) setDefaults() error {
	switch o.Method {
	case "":
		o.Method = SPR
	case NNI, SPR:
	default:
		return errors.New(errors.ErrCodeInvalidMethod, "unknown rearrangement method %q", o.Method)
	}
	switch o.AddSeq {
	case "":
		o.AddSeq = AddAsIs
	case AddAsIs, AddRandom:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown addition sequence %q", o.AddSeq)
	}
	if o.Limits.MaxRearrangements < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "rearrangement limit must not be negative")
	}
	if o.Limits.Replicates <= 0 {
		o.Limits.Replicates = 1
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Result is the outcome of [Run].
type Result struct {
	Buffer         *Buffer // shortest trees found
	Length         int
	Rearrangements int64
	Improvements   int
	Replicates     int // replicates started
	Stop           StopReason
	Duration       time.Duration
}

// Trees returns the shortest trees found.
func (r *Result) Trees() []*tree.Tree { return r.Buffer.Trees() }

// Verify rescores every buffered tree with a full pass and checks it against
// the reported lengths. A mismatch is a STRUCTURAL error.
func (r *Result) Verify(m *charset.Matrix) error {
	for i, t := range r.Trees() {
		length, err := fitch.Score(t.Copy(), m)
		if err != nil {
			return err
		}
		if length != r.Length || length != t.Length {
			return errors.New(errors.ErrCodeStructural,
				"tree %d scores %d, search reported %d (tree %d)", i+1, length, r.Length, t.Length)
		}
	}
	return nil
}

// Run searches for the shortest trees for m. The first replicate starts
// from start, or from a stepwise-addition tree when start is nil; start
// itself is never modified.
//
// Reaching a limit is not an error: the result reports it in Stop. Run
// checks ctx between trees and returns ctx.Err() when it is done.
func Run(ctx context.Context, start *tree.Tree, m *charset.Matrix, opts Options) (*Result, error) {
	began := time.Now()
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	if start != nil {
		if start.NumTaxa() != m.NumTaxa() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "tree has %d taxa, matrix has %d", start.NumTaxa(), m.NumTaxa())
		}
		if start.Rooted() {
			return nil, tree.ErrRooted
		}
	}
	buf, err := NewBuffer(opts.Limits.MaxTrees)
	if err != nil {
		return nil, err
	}

	s := newSearcher(ctx, m, opts, buf)
	method := string(opts.Method)
	s.hooks.OnSearchStart(ctx, method, m.NumTaxa(), m.NumChars())
	s.logger.Debug("search started", "method", method, "taxa", m.NumTaxa(), "chars", m.NumChars(), "replicates", opts.Limits.Replicates)

	stop, err := s.run(start)
	res := &Result{
		Buffer:         buf,
		Length:         s.state.Best,
		Rearrangements: s.state.Rearrangements,
		Improvements:   s.state.Improvements,
		Replicates:     s.state.Replicate + 1,
		Stop:           stop,
		Duration:       time.Since(began),
	}
	s.hooks.OnSearchComplete(ctx, method, res.Length, buf.Len(), string(stop), res.Duration, err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search finished", "length", res.Length, "trees", buf.Len(), "stop", stop, "duration", res.Duration)
	return res, nil
}

func (s *searcher) run(start *tree.Tree) (StopReason, error) {
	st := s.state
	st.Best = math.MaxInt
	for rep := 0; rep < s.opts.Limits.Replicates; rep++ {
		if err := s.ctx.Err(); err != nil {
			return "", err
		}
		t, err := s.startingTree(start, rep)
		if err != nil {
			return "", err
		}
		length, err := fitch.Score(t, s.m)
		if err != nil {
			return "", err
		}

		st.Replicate = rep
		st.BestInReplicate = length
		st.FoundBetter = false
		if length < st.Best {
			st.Best = length
			st.RangeStart = 0
			s.buf.Truncate(0)
		} else {
			st.RangeStart = s.buf.Len()
		}

		stop := StopConverged
		if _, err := s.buf.Add(t, st.RangeStart); err != nil {
			stop, err = stopFor(err)
			if err != nil {
				return "", err
			}
		} else if stop, err = s.swapRange(); err != nil {
			return "", err
		}
		s.finishReplicate()
		s.hooks.OnReplicateComplete(s.ctx, string(s.opts.Method), rep, st.BestInReplicate, st.Rearrangements)
		s.logger.Debug("replicate finished", "replicate", rep+1, "length", st.BestInReplicate, "best", st.Best, "trees", s.buf.Len())
		if stop != StopConverged {
			return stop, nil
		}
	}
	return StopConverged, nil
}

func (s *searcher) startingTree(start *tree.Tree, rep int) (*tree.Tree, error) {
	if rep == 0 && start != nil {
		return start.Copy(), nil
	}
	seq := s.opts.AddSeq
	if rep > 0 {
		seq = AddRandom
	}
	return StepwiseAddition(s.m, seq.Order(s.m.NumTaxa(), s.opts.Seed+uint64(rep)))
}

// swapRange rearranges every tree of the replicate's range until none
// yields a shorter or a new equally short tree. An improvement empties the
// range, so the sweep starts over from its first tree.
func (s *searcher) swapRange() (StopReason, error) {
	st := s.state
	for j := st.RangeStart; j < s.buf.Len(); {
		if err := s.ctx.Err(); err != nil {
			return "", err
		}
		if s.buf.swapped(j) {
			j++
			continue
		}
		t := s.buf.Tree(j)
		if _, err := fitch.Score(t, s.m); err != nil {
			return "", err
		}
		st.FoundBetter = false
		if err := s.rearrange(t); err != nil {
			return stopFor(err)
		}
		if st.FoundBetter {
			j = st.RangeStart
			continue
		}
		s.buf.markSwapped(j)
		j++
	}
	return StopConverged, nil
}

// finishReplicate keeps the replicate's trees only when they tie the best
// length, dropping repeats of earlier replicates.
func (s *searcher) finishReplicate() {
	st := s.state
	if st.BestInReplicate > st.Best {
		s.buf.Truncate(st.RangeStart)
	} else if st.RangeStart > 0 {
		s.buf.dedupe(st.RangeStart)
	}
}

func stopFor(err error) (StopReason, error) {
	switch err {
	case ErrBufferFull:
		return StopTreeLimit, nil
	case ErrRearrangementLimit:
		return StopRearrangementLimit, nil
	}
	return "", err
}
