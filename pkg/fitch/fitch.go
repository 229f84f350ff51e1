package fitch

import (
	"fmt"

	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// ErrOpenRing is returned when a pass reaches a ring with a disconnected slot.
var ErrOpenRing = errors.New(errors.ErrCodeStructural, "ring has a disconnected slot")

// combine merges two preliminary sets, returning the parent set and the
// number of steps charged.
func combine(l, r charset.StateSet) (charset.StateSet, int) {
	if x := l & r; x != 0 {
		return x, 0
	}
	if l.IsApplicable() && r.IsApplicable() {
		return (l | r) & charset.Applicable, 1
	}
	return l | r, 0
}

// refine computes the final set of an internal node from its preliminary set,
// its ancestor's final set and its children's preliminary sets.
func refine(pre, anc, l, r charset.StateSet) charset.StateSet {
	if pre&anc == anc {
		return anc
	}
	if l&r != 0 {
		return pre | (anc & (l | r))
	}
	if anc.IsApplicable() && pre.IsApplicable() {
		return (pre | anc) & charset.Applicable
	}
	return pre | anc
}

// tipFinal narrows a terminal's observed set to the states shared with its
// ancestor. A purely inapplicable tip is left as observed.
func tipFinal(raw, anc charset.StateSet) charset.StateSet {
	if raw != charset.Inapplicable {
		if x := raw & anc; x != 0 {
			return x
		}
	}
	return raw
}

// pass is one traversal over a temporarily rooted tree.
type pass struct {
	t           *tree.Tree
	m           *charset.Matrix
	nchar       int
	chars       []int
	incremental bool
	steps       int
	perChar     []int
}

func newPass(t *tree.Tree, m *charset.Matrix, chars Changing, incremental bool) (*pass, error) {
	if m.NumTaxa() != t.NumTaxa() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "matrix has %d taxa, tree has %d", m.NumTaxa(), t.NumTaxa())
	}
	if chars == nil {
		chars = All(m.NumChars())
	}
	return &pass{t: t, m: m, nchar: m.NumChars(), chars: chars, incremental: incremental}, nil
}

// run roots t at its start terminal when needed and runs both passes.
func (p *pass) run() error {
	if !p.t.Rooted() {
		if err := p.t.TempRoot(p.t.Start()); err != nil {
			return err
		}
		defer p.t.Unroot()
	}
	root := p.t.Root()
	if _, err := p.postorder(root); err != nil {
		return err
	}
	p.finishRoot(root)
	return nil
}

func (p *pass) postorder(n tree.NodeID) (bool, error) {
	t := p.t
	if t.IsTerminal(n) {
		return p.refreshTip(n), nil
	}
	l, r := t.Children(n)
	if l == tree.None || r == tree.None {
		return false, fmt.Errorf("ring %d: %w", t.Ring(n), ErrOpenRing)
	}
	dl, err := p.postorder(l)
	if err != nil {
		return false, err
	}
	dr, err := p.postorder(r)
	if err != nil {
		return false, err
	}

	pl, pr, pn := t.Prelim(l, p.nchar), t.Prelim(r, p.nchar), t.Prelim(n, p.nchar)
	changed := false
	for _, c := range p.chars {
		v, step := combine(pl[c], pr[c])
		if step != 0 {
			p.steps += step
			if p.perChar != nil {
				p.perChar[c] += step
			}
		}
		if v != pn[c] {
			pn[c] = v
			changed = true
		}
	}
	t.SetWeight(n, t.Weight(l)+t.Weight(r))
	dirty := dl || dr || changed || t.Stale(n)
	t.SetConverged(n, !dirty)
	return dirty, nil
}

// refreshTip copies observed states into a terminal's preliminary buffer.
func (p *pass) refreshTip(n tree.NodeID) bool {
	t := p.t
	row := p.m.Row(t.Taxon(n))
	pre := t.Prelim(n, p.nchar)
	changed := false
	for _, c := range p.chars {
		if pre[c] != row[c] {
			pre[c] = row[c]
			changed = true
		}
	}
	changed = changed || t.Stale(n)
	t.SetWeight(n, 1)
	t.SetConverged(n, !changed)
	return changed
}

func (p *pass) finishRoot(root tree.NodeID) {
	t := p.t
	pre, fin := t.Prelim(root, p.nchar), t.Final(root, p.nchar)
	changed := false
	for _, c := range p.chars {
		if fin[c] != pre[c] {
			fin[c] = pre[c]
			changed = true
		}
	}
	if p.incremental && !changed && t.Converged(root) {
		return
	}
	l, r := t.Children(root)
	p.preorder(l, fin)
	p.preorder(r, fin)
}

func (p *pass) preorder(n tree.NodeID, anc []charset.StateSet) {
	t := p.t
	if t.IsTerminal(n) {
		pre, fin := t.Prelim(n, p.nchar), t.Final(n, p.nchar)
		for _, c := range p.chars {
			fin[c] = tipFinal(pre[c], anc[c])
		}
		return
	}
	l, r := t.Children(n)
	pn, fn := t.Prelim(n, p.nchar), t.Final(n, p.nchar)
	pl, pr := t.Prelim(l, p.nchar), t.Prelim(r, p.nchar)
	changed := false
	for _, c := range p.chars {
		v := refine(pn[c], anc[c], pl[c], pr[c])
		if v != fn[c] {
			fn[c] = v
			changed = true
		}
	}
	if p.incremental && !changed && t.Converged(n) {
		return
	}
	p.preorder(l, fn)
	p.preorder(r, fn)
}

// Score runs a full optimization of t and returns its parsimony length. The
// result is also cached in t.Length. t must be unrooted or rooted with
// [tree.Tree.TempRoot].
func Score(t *tree.Tree, m *charset.Matrix) (int, error) {
	p, err := newPass(t, m, nil, false)
	if err != nil {
		return 0, err
	}
	if err := p.run(); err != nil {
		return 0, err
	}
	t.Length = p.steps
	return p.steps, nil
}

// Steps runs a full optimization of t and returns the steps of each character.
func Steps(t *tree.Tree, m *charset.Matrix) ([]int, error) {
	p, err := newPass(t, m, nil, false)
	if err != nil {
		return nil, err
	}
	p.perChar = make([]int, m.NumChars())
	if err := p.run(); err != nil {
		return nil, err
	}
	t.Length = p.steps
	return p.perChar, nil
}

// Reoptimize recomputes the characters in chars, leaving every other
// character's buffers as the previous pass left them. It returns the steps of
// the listed characters.
//
// The caller guarantees that no unlisted character can change: the tree must
// have been fully optimized before, and any structural change since then must
// only affect listed characters. Every node that received a new parent since
// the last pass must be marked with [tree.Tree.Invalidate]; otherwise the
// preorder stops above it once the final sets it meets look unchanged.
// Terminal observations are re-read from m for the listed characters.
func Reoptimize(t *tree.Tree, m *charset.Matrix, chars Changing) (int, error) {
	if len(chars) == 0 {
		return 0, nil
	}
	p, err := newPass(t, m, chars, true)
	if err != nil {
		return 0, err
	}
	if err := p.run(); err != nil {
		return 0, err
	}
	return p.steps, nil
}
