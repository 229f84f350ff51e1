package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// resolveLimit bounds the scan for an ID prefix.
const resolveLimit = 10000

// resultsCommand creates the results command group.
func (c *CLI) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "results",
		Aliases: []string{"r"},
		Short:   "Manage archived results",
	}

	cmd.AddCommand(c.resultsListCommand())
	cmd.AddCommand(c.resultsShowCommand())
	cmd.AddCommand(c.resultsDeleteCommand())

	return cmd
}

func (c *CLI) resultsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List archived results, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				printInfo("No archived results")
				return nil
			}
			printResultTable(results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", archive.DefaultListLimit, "maximum number of results")
	return cmd
}

func (c *CLI) resultsShowCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived result",
		Long:  "Show an archived result. The ID may be shortened to any unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if jsonOut {
				return writeJSONResult(res, "")
			}
			printResult(res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

func (c *CLI) resultsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete archived results",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, arg := range args {
				id, err := resolveID(ctx, store, arg)
				if err != nil {
					return err
				}
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

func fetchResult(ctx context.Context, store archive.Store, arg string) (*pipeline.Result, error) {
	id, err := resolveID(ctx, store, arg)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// resolveID expands a unique ID prefix to the full result ID.
func resolveID(ctx context.Context, store archive.Store, arg string) (string, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if errors.ValidateResultID(arg) == nil {
		return arg, nil
	}
	if arg == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty result ID")
	}
	results, err := store.List(ctx, resolveLimit)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range results {
		if strings.HasPrefix(r.ID, arg) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.New(errors.ErrCodeResultNotFound, "no result matches %q", arg)
	case 1:
		return matches[0], nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "%q matches %d results", arg, len(matches))
}
