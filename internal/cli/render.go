package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
	"github.com/matzehuels/parsimony/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output file; "-" writes to stdout
	format    string   // dot, svg, png or pdf
	tree      int      // 1-based tree index
	all       bool     // render every tree of the result
	highlight []string // taxa drawn in bold
}

// renderCommand creates the render command for drawing archived trees.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: string(render.FormatSVG), tree: 1}

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Draw a tree of an archived result",
		Long: `Render draws one tree of an archived result (or all of them with --all)
as Graphviz DOT, SVG, PNG or PDF. PNG and PDF need rsvg-convert on PATH.`,
		Example: `  parsimony render 3f2a9c1e
  parsimony render 3f2a9c1e --all -f png
  parsimony render 3f2a9c1e --tree 2 --highlight Homo,Pan -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := fetchResult(ctx, store, args[0])
			if err != nil {
				return err
			}
			return c.runRender(res, f, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or - for stdout (default <id>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, png, pdf")
	cmd.Flags().IntVar(&opts.tree, "tree", opts.tree, "which tree to draw (1-based)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "draw every tree, one file each")
	cmd.Flags().StringSliceVar(&opts.highlight, "highlight", nil, "taxa to set in bold")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"dot", "svg", "png", "pdf"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runRender(res *pipeline.Result, f render.Format, opts *renderOpts) error {
	indices := []int{opts.tree - 1}
	if opts.all {
		if opts.output == "-" {
			return errors.New(errors.ErrCodeInvalidInput, "--all cannot write to stdout")
		}
		indices = indices[:0]
		for i := range res.Trees {
			indices = append(indices, i)
		}
	}

	prog := newProgress(c.Logger)
	var written []string
	for _, i := range indices {
		data, err := pipeline.RenderTree(res, i, f, opts.highlight...)
		if err != nil {
			return err
		}
		if opts.output == "-" {
			_, err := stdout.Write(data)
			return err
		}
		path := outputPath(res, i, f, opts)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	prog.done("rendered", "trees", len(written), "format", f)

	printSuccess("Rendered %s", pluralize(len(written), "tree"))
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// outputPath names the file for tree i. With --all, an explicit --output is
// used as the base name.
func outputPath(res *pipeline.Result, i int, f render.Format, opts *renderOpts) string {
	base := shortID(res.ID)
	if opts.output != "" {
		if !opts.all {
			return opts.output
		}
		base = strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	}
	if opts.all && len(res.Trees) > 1 {
		return fmt.Sprintf("%s-%d.%s", base, i+1, f)
	}
	return fmt.Sprintf("%s.%s", base, f)
}
