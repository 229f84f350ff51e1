package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/parsimony/pkg/newick"
)

func TestToDOT(t *testing.T) {
	taxa := []string{"Homo", "Pan", "Gorilla", "Pongo", "Hylobates"}
	tr, err := newick.Parse("((Homo,Pan),Gorilla,(Pongo,Hylobates));", taxa)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dot := ToDOT(tr, taxa, Options{Label: "length 4", Highlight: []string{"Pan"}})

	if !strings.HasPrefix(dot, "digraph T {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("malformed DOT:\n%s", dot)
	}
	for _, name := range taxa {
		if !strings.Contains(dot, `label="`+name+`"`) {
			t.Errorf("DOT missing taxon %s", name)
		}
	}
	if got, want := strings.Count(dot, " -> "), 2*len(taxa)-3; got != want {
		t.Errorf("DOT has %d edges, want %d", got, want)
	}
	if got := strings.Count(dot, "shape=point"); got != len(taxa)-2 {
		t.Errorf("DOT has %d internal vertices, want %d", got, len(taxa)-2)
	}
	if !strings.Contains(dot, `label="length 4"`) {
		t.Error("DOT missing graph label")
	}
	if !strings.Contains(dot, `label="Pan", fontname="Helvetica-Bold"`) {
		t.Error("highlighted taxon should be bold")
	}
}

func TestToDOTNumbersUnnamedTaxa(t *testing.T) {
	tr, err := newick.Parse("(1,2,(3,4));", nil)
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(tr, nil, Options{})
	for _, label := range []string{`"1"`, `"2"`, `"3"`, `"4"`} {
		if !strings.Contains(dot, "label="+label) {
			t.Errorf("DOT missing label %s", label)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	tr, err := newick.Parse("(1,2,(3,4));", nil)
	if err != nil {
		t.Fatal(err)
	}
	svg, err := Render(ToDOT(tr, nil, Options{}), FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{"png", FormatPNG, false},
		{"pdf", FormatPDF, false},
		{"dot", FormatDOT, false},
		{"SVG", "", true},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatSVG.ContentType() != "image/svg+xml" {
		t.Error("wrong SVG content type")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if string(normalizeViewBox([]byte("<svg/>"))) != "<svg/>" {
		t.Error("SVG without a view box should pass through")
	}
}
