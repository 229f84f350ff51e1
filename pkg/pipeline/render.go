package pipeline

import (
	"fmt"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/newick"
	"github.com/matzehuels/parsimony/pkg/render"
)

// RenderTree draws tree i of res in the given format. Taxa named in
// highlight are set in bold.
func RenderTree(res *Result, i int, f render.Format, highlight ...string) ([]byte, error) {
	if i < 0 || i >= len(res.Trees) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tree %d out of range (result has %d trees)", i+1, len(res.Trees))
	}
	t, err := newick.Parse(res.Trees[i], res.Taxa)
	if err != nil {
		return nil, err
	}
	label := fmt.Sprintf("length %d", res.Length)
	if len(res.Trees) > 1 {
		label = fmt.Sprintf("tree %d of %d, length %d", i+1, len(res.Trees), res.Length)
	}
	return render.Render(render.ToDOT(t, res.Taxa, render.Options{Label: label, Highlight: highlight}), f)
}
