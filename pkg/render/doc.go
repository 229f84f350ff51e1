// Package render draws trees.
//
// [ToDOT] lays a tree out as a Graphviz digraph drawn left to right from the
// start terminal, the same terminal Newick output places first. [Render]
// turns DOT source into SVG in-process with go-graphviz; PNG and PDF are
// converted from that SVG by the external rsvg-convert tool.
//
//	dot := render.ToDOT(t, m.Taxa(), render.Options{Label: "length 12"})
//	svg, err := render.Render(dot, render.FormatSVG)
//
// PNG and PDF require librsvg: brew install librsvg (macOS),
// apt install librsvg2-bin (Linux).
package render
