// Package newick reads and writes trees in Newick notation.
//
// Leaves are taxon labels or 1-based taxon numbers; internal labels and branch
// lengths are accepted and ignored. A leading [&R] or [&U] comment (any case)
// states whether the input is rooted; a rooted tree is unrooted on reading.
//
//	[&U] (1,(2,3),(4,5));
//	[&r] ((Homo,Pan),(Gorilla,Pongo));
package newick

import (
	"strconv"
	"strings"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// Parsed is a tree read from Newick text.
type Parsed struct {
	Topology tree.Topology
	Rooted   bool // the input carried [&R]
}

// Parse reads one tree and builds it. Labels are looked up in taxa; when a
// label is not a taxon name it must be a taxon number between 1 and ntax. With
// nil taxa, ntax is the number of leaves.
func Parse(s string, taxa []string) (*tree.Tree, error) {
	p, err := ParseTopology(s, taxa)
	if err != nil {
		return nil, err
	}
	return tree.FromTopology(p.Topology)
}

// ParseTopology reads one tree into an edge list without building it.
func ParseTopology(s string, taxa []string) (*Parsed, error) {
	p := &parser{src: s, taxa: taxa}
	p.skipSpace()
	if err := p.rootingComment(); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != '(' {
		return nil, p.errorf("tree must start with '('")
	}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ';' {
		return nil, p.errorf("missing ';'")
	}

	ntax := len(taxa)
	if taxa == nil {
		ntax = len(p.leaves)
	}
	if len(p.leaves) != ntax {
		return nil, errors.New(errors.ErrCodeInvalidTree, "tree has %d leaves, expected %d taxa", len(p.leaves), ntax)
	}
	seen := make([]bool, ntax)
	for _, l := range p.leaves {
		idx, err := p.resolve(l, ntax)
		if err != nil {
			return nil, err
		}
		if seen[idx] {
			return nil, errors.New(errors.ErrCodeInvalidTree, "taxon %q appears twice", l.label)
		}
		seen[idx] = true
		l.taxon = idx
	}

	out := &Parsed{Rooted: p.rooted, Topology: tree.Topology{NumTaxa: ntax}}
	p.edges(root, ntax, &out.Topology)
	return out, nil
}

type vertex struct {
	label    string
	children []*vertex
	taxon    int
	id       int
}

type parser struct {
	src    string
	pos    int
	taxa   []string
	leaves []*vertex
	rooted bool
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidTree, "newick offset %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) rootingComment() error {
	if p.peek() != '[' {
		return nil
	}
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return p.errorf("unterminated comment")
	}
	switch strings.ToUpper(p.src[p.pos : p.pos+end+1]) {
	case "[&R]":
		p.rooted = true
	case "[&U]":
	}
	p.pos += end + 1
	return nil
}

// skipComment steps over a bracketed comment inside the tree.
func (p *parser) skipComment() error {
	for p.peek() == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return p.errorf("unterminated comment")
		}
		p.pos += end + 1
		p.skipSpace()
	}
	return nil
}

func (p *parser) subtree() (*vertex, error) {
	p.skipSpace()
	if p.peek() != '(' {
		label, err := p.label()
		if err != nil {
			return nil, err
		}
		if label == "" {
			return nil, p.errorf("empty leaf label")
		}
		v := &vertex{label: label}
		p.leaves = append(p.leaves, v)
		return v, p.branchLength()
	}

	p.pos++
	v := &vertex{}
	for {
		child, err := p.subtree()
		if err != nil {
			return nil, err
		}
		v.children = append(v.children, child)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ')':
			p.pos++
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
		break
	}
	if _, err := p.label(); err != nil {
		return nil, err
	}
	return v, p.branchLength()
}

func (p *parser) label() (string, error) {
	p.skipSpace()
	if err := p.skipComment(); err != nil {
		return "", err
	}
	if p.peek() == '\'' {
		var b strings.Builder
		p.pos++
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			p.pos++
			if c == '\'' {
				if p.peek() != '\'' {
					return b.String(), nil
				}
				p.pos++
			}
			b.WriteByte(c)
		}
		return "", p.errorf("unterminated quoted label")
	}
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("(),:;[ \t\r\n", p.src[p.pos]) < 0 {
		p.pos++
	}
	return strings.ReplaceAll(p.src[start:p.pos], "_", " "), nil
}

func (p *parser) branchLength() error {
	p.skipSpace()
	if p.peek() != ':' {
		return p.skipComment()
	}
	p.pos++
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("(),;[ \t\r\n", p.src[p.pos]) < 0 {
		p.pos++
	}
	if _, err := strconv.ParseFloat(p.src[start:p.pos], 64); err != nil {
		return p.errorf("invalid branch length %q", p.src[start:p.pos])
	}
	p.skipSpace()
	return p.skipComment()
}

func (p *parser) resolve(v *vertex, ntax int) (int, error) {
	for i, name := range p.taxa {
		if name == v.label || strings.ReplaceAll(name, "_", " ") == v.label {
			return i, nil
		}
	}
	n, err := strconv.Atoi(v.label)
	if err != nil || n < 1 || n > ntax {
		return 0, errors.New(errors.ErrCodeInvalidTree, "unknown taxon %q", v.label)
	}
	return n - 1, nil
}

// edges numbers internal vertices from ntax upward and lists every edge.
func (p *parser) edges(root *vertex, ntax int, tp *tree.Topology) {
	next := ntax
	var walk func(v *vertex) int
	walk = func(v *vertex) int {
		if v.children == nil {
			return v.taxon
		}
		v.id = next
		next++
		for _, c := range v.children {
			tp.Edges = append(tp.Edges, tree.Edge{A: v.id, B: walk(c)})
		}
		return v.id
	}
	walk(root)
}

// Format writes t in unrooted Newick notation with a basal trichotomy at the
// ring next to the start terminal. Leaves are labeled from taxa, or with
// 1-based taxon numbers when taxa is nil.
func Format(t *tree.Tree, taxa []string) string {
	var b strings.Builder
	b.WriteString("[&U] ")
	start := t.Start()
	top := t.Neighbor(start)
	if top == tree.None || t.IsTerminal(top) {
		b.WriteString("(")
		writeLabel(&b, t.Taxon(start), taxa)
		if top != tree.None {
			b.WriteString(",")
			writeLabel(&b, t.Taxon(top), taxa)
		}
		b.WriteString(");")
		return b.String()
	}
	b.WriteString("(")
	writeLabel(&b, t.Taxon(start), taxa)
	l, r := t.Mates(top)
	b.WriteString(",")
	writeSubtree(&b, t, t.Neighbor(l), taxa)
	b.WriteString(",")
	writeSubtree(&b, t, t.Neighbor(r), taxa)
	b.WriteString(");")
	return b.String()
}

func writeSubtree(b *strings.Builder, t *tree.Tree, n tree.NodeID, taxa []string) {
	if t.IsTerminal(n) {
		writeLabel(b, t.Taxon(n), taxa)
		return
	}
	l, r := t.Mates(n)
	b.WriteString("(")
	writeSubtree(b, t, t.Neighbor(l), taxa)
	b.WriteString(",")
	writeSubtree(b, t, t.Neighbor(r), taxa)
	b.WriteString(")")
}

func writeLabel(b *strings.Builder, taxon int, taxa []string) {
	if taxa == nil {
		b.WriteString(strconv.Itoa(taxon + 1))
		return
	}
	name := taxa[taxon]
	if strings.ContainsAny(name, " '_(),:;[]") {
		b.WriteString("'" + strings.ReplaceAll(name, "'", "''") + "'")
		return
	}
	b.WriteString(name)
}
