package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/parsimony/pkg/tree"
)

// Options configures tree drawings.
type Options struct {
	// Label is printed under the tree, e.g. its length.
	Label string

	// Highlight names taxa drawn in bold.
	Highlight []string
}

// ToDOT converts t to Graphviz DOT. Terminals are labeled from taxa (or with
// 1-based numbers when taxa is nil); internal vertices are points.
func ToDOT(t *tree.Tree, taxa []string, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph T {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n")
	buf.WriteString("  node [shape=plaintext, fontsize=14, height=0.2];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	if opts.Label != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=b;\n", opts.Label)
	}
	buf.WriteString("\n")

	bold := make(map[string]bool, len(opts.Highlight))
	for _, h := range opts.Highlight {
		bold[h] = true
	}
	w := dotWriter{buf: &buf, t: t, taxa: taxa, bold: bold}

	start := t.Start()
	w.vertex(start)
	top := t.Neighbor(start)
	if top == tree.None {
		buf.WriteString("}\n")
		return buf.String()
	}
	w.edge(start, top)
	w.subtree(top)
	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf  *bytes.Buffer
	t    *tree.Tree
	taxa []string
	bold map[string]bool
}

// subtree writes n and everything away from the start terminal.
func (w *dotWriter) subtree(n tree.NodeID) {
	w.vertex(n)
	if w.t.IsTerminal(n) {
		return
	}
	l, r := w.t.Mates(n)
	for _, m := range []tree.NodeID{l, r} {
		child := w.t.Neighbor(m)
		w.edge(n, child)
		w.subtree(child)
	}
}

func (w *dotWriter) vertex(n tree.NodeID) {
	if !w.t.IsTerminal(n) {
		fmt.Fprintf(w.buf, "  %s [shape=point, width=0.05];\n", w.id(n))
		return
	}
	label := w.label(n)
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if w.bold[label] {
		attrs = append(attrs, "fontname=\"Helvetica-Bold\"")
	}
	fmt.Fprintf(w.buf, "  %s [%s];\n", w.id(n), strings.Join(attrs, ", "))
}

func (w *dotWriter) edge(from, to tree.NodeID) {
	fmt.Fprintf(w.buf, "  %s -> %s;\n", w.id(from), w.id(to))
}

// id names terminals by taxon and internal vertices by ring.
func (w *dotWriter) id(n tree.NodeID) string {
	if w.t.IsTerminal(n) {
		return fmt.Sprintf("t%d", w.t.Taxon(n))
	}
	return fmt.Sprintf("r%d", w.t.Ring(n))
}

func (w *dotWriter) label(n tree.NodeID) string {
	i := w.t.Taxon(n)
	if i < len(w.taxa) {
		return w.taxa[i]
	}
	return fmt.Sprint(i + 1)
}
