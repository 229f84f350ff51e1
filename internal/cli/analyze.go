package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// analysisFlags holds the flags shared by score and search.
type analysisFlags struct {
	matrix            string
	tree              string
	taxa              []string
	method            string
	maxTrees          int
	maxRearrangements int64
	replicates        int
	seed              uint64
	addSeq            string
	naAsMissing       bool
	exclude           string
	refresh           bool
	jsonOut           bool
	output            string
	noArchive         bool
}

type runFunc func(*pipeline.Runner, context.Context, pipeline.Options) (*pipeline.Result, error)

// scoreCommand creates the score command.
func (c *CLI) scoreCommand() *cobra.Command {
	f := &analysisFlags{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the parsimony length of a tree",
		Long: `Score reads a character matrix and a Newick tree and reports the Fitch
length, the steps per character and the consistency and retention indices.`,
		Example: `  parsimony score -m data.txt -t "(1,(2,3),(4,5));"
  cat data.txt | parsimony score -m - -t best.tre --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAnalysis(cmd, f, (*pipeline.Runner).Score)
		},
	}
	c.addInputFlags(cmd.Flags(), f)
	cmd.Flags().StringVarP(&f.tree, "tree", "t", "", "Newick tree or file containing one (required)")
	_ = cmd.MarkFlagRequired("tree")
	return cmd
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	f := &analysisFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for the most parsimonious trees",
		Long: `Search builds a starting tree by stepwise addition, or reads one with --tree,
and improves it by NNI or SPR rearrangement until no rearrangement shortens it.
All distinct trees of the best length are kept, up to --max-trees.`,
		Example: `  parsimony search -m data.txt
  parsimony search -m data.txt --method nni --replicates 20 --seed 7
  parsimony search -m data.txt --exclude "1-3 9" -o best.tre`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAnalysis(cmd, f, (*pipeline.Runner).Search)
		},
	}
	c.addInputFlags(cmd.Flags(), f)

	flags := cmd.Flags()
	flags.StringVarP(&f.tree, "tree", "t", "", "starting Newick tree or file (default: stepwise addition)")
	flags.StringVar(&f.method, "method", pipeline.DefaultMethod, "rearrangement: nni or spr")
	flags.IntVar(&f.maxTrees, "max-trees", pipeline.DefaultMaxTrees, "tree buffer capacity")
	flags.Int64Var(&f.maxRearrangements, "max-rearrangements", 0, "stop after this many rearrangements (0 = no limit)")
	flags.IntVar(&f.replicates, "replicates", pipeline.DefaultReplicates, "number of starting trees")
	flags.Uint64Var(&f.seed, "seed", 0, "random seed for addition sequences")
	flags.StringVar(&f.addSeq, "addseq", pipeline.DefaultAddSeq, "addition sequence of the first replicate: asis or random")
	_ = cmd.RegisterFlagCompletionFunc("method", cobra.FixedCompletions([]string{"nni", "spr"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("addseq", cobra.FixedCompletions([]string{"asis", "random"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) addInputFlags(flags *pflag.FlagSet, f *analysisFlags) {
	flags.StringVarP(&f.matrix, "matrix", "m", "", "character matrix file, or - for stdin (required)")
	flags.StringSliceVar(&f.taxa, "taxa", nil, "comma-separated taxon names in matrix row order")
	flags.BoolVar(&f.naAsMissing, "na-missing", false, "read '-' as missing data instead of inapplicable")
	flags.StringVar(&f.exclude, "exclude", "", `characters to exclude, e.g. "1-5 8"`)
	flags.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	flags.BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
	flags.StringVarP(&f.output, "output", "o", "", "write the trees (or JSON with --json) to this file")
	flags.BoolVar(&f.noArchive, "no-archive", false, "do not keep the result in the archive")
}

// options builds pipeline options from flags, falling back to the config
// file for flags the user did not set.
func (c *CLI) options(cmd *cobra.Command, f *analysisFlags) (pipeline.Options, error) {
	if f.matrix == "" {
		return pipeline.Options{}, fmt.Errorf("--matrix is required")
	}
	matrix, err := readInput(cmd.InOrStdin(), f.matrix)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("read matrix: %w", err)
	}
	tree, err := readTree(f.tree)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("read tree: %w", err)
	}

	opts := pipeline.Options{
		Matrix:            matrix,
		Taxa:              f.taxa,
		Tree:              tree,
		Method:            f.method,
		MaxTrees:          f.maxTrees,
		MaxRearrangements: f.maxRearrangements,
		Replicates:        f.replicates,
		Seed:              f.seed,
		AddSeq:            f.addSeq,
		NAAsMissing:       f.naAsMissing,
		Exclude:           f.exclude,
		Refresh:           f.refresh,
		Logger:            c.Logger,
	}

	cfg, flags := c.config, cmd.Flags()
	unset := func(name string) bool {
		fl := flags.Lookup(name)
		return fl != nil && !fl.Changed
	}
	if unset("method") && cfg.Search.Method != "" {
		opts.Method = cfg.Search.Method
	}
	if unset("max-trees") && cfg.Search.MaxTrees != 0 {
		opts.MaxTrees = cfg.Search.MaxTrees
	}
	if unset("max-rearrangements") && cfg.Search.MaxRearrangements != 0 {
		opts.MaxRearrangements = cfg.Search.MaxRearrangements
	}
	if unset("replicates") && cfg.Search.Replicates != 0 {
		opts.Replicates = cfg.Search.Replicates
	}
	if unset("seed") && cfg.Search.Seed != 0 {
		opts.Seed = cfg.Search.Seed
	}
	if unset("addseq") && cfg.Search.AddSeq != "" {
		opts.AddSeq = cfg.Search.AddSeq
	}
	if unset("na-missing") && cfg.Matrix.NAAsMissing {
		opts.NAAsMissing = true
	}
	return opts, nil
}

func (c *CLI) runAnalysis(cmd *cobra.Command, f *analysisFlags, run runFunc) error {
	ctx := cmd.Context()
	opts, err := c.options(cmd, f)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if !c.verbose && !f.jsonOut {
		verb := "Searching"
		if f.method == "" {
			verb = "Scoring"
		}
		spinner = newSpinner(ctx, verb+" "+describeInput(f.matrix)+"...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	res, err := run(runner, ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(string(res.Kind)+" finished", "length", res.Length, "cached", res.Cached)

	archived := !f.noArchive && c.archive(ctx, res)

	if f.jsonOut {
		return writeJSONResult(res, f.output)
	}
	printResult(res)
	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(strings.Join(res.Trees, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write trees: %w", err)
		}
		printFile(f.output)
	}
	if archived {
		fmt.Fprintln(stdout)
		printNextStep("Render", appName+" render "+shortID(res.ID))
	}
	return nil
}

// archive saves res and reports whether it was stored. Archive failures
// never fail the analysis.
func (c *CLI) archive(ctx context.Context, res *pipeline.Result) bool {
	store, err := c.openArchive(ctx)
	if err != nil {
		c.Logger.Warn("archive unavailable", "error", err)
		return false
	}
	defer store.Close()
	if err := store.Save(ctx, res); err != nil {
		c.Logger.Warn("archive result", "id", res.ID, "error", err)
		return false
	}
	c.Logger.Debug("result archived", "id", res.ID)
	return true
}

func writeJSONResult(res *pipeline.Result, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// readTree accepts Newick text directly, or a path to a file holding it.
func readTree(arg string) (string, error) {
	s := strings.TrimSpace(arg)
	if s == "" || strings.HasPrefix(s, "(") || strings.HasPrefix(s, "[") {
		return s, nil
	}
	data, err := os.ReadFile(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func describeInput(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
