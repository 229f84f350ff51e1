package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/observability"
	"github.com/matzehuels/parsimony/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	noArchive bool
	noMetrics bool
	maxBody   int64
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{maxBody: server.DefaultMaxBodyBytes}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes scoring, searching and the result archive over HTTP:

  POST   /v1/score
  POST   /v1/search
  GET    /v1/results
  GET    /v1/results/{id}
  DELETE /v1/results/{id}
  GET    /v1/results/{id}/{format}
  GET    /healthz
  GET    /metrics

Searches run synchronously within the request. The server stops gracefully
on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.addr = c.config.serverAddr()
			}
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().BoolVar(&opts.noArchive, "no-archive", false, "do not archive results (disables /v1/results)")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum request body size in bytes")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	var store archive.Store
	if !opts.noArchive {
		store, err = c.openArchive(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	srv := server.New(runner, store, c.Logger)
	srv.MaxBodyBytes = opts.maxBody
	if !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewPrometheus(reg)
		observability.SetSearchHooks(metrics)
		observability.SetCacheHooks(metrics)
		observability.SetHTTPHooks(metrics)
		srv.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	c.Logger.Info("starting server",
		"addr", opts.addr,
		"cache", c.cacheBackend(),
		"archive", !opts.noArchive,
		"metrics", !opts.noMetrics)
	return srv.ListenAndServe(ctx, opts.addr)
}

func (c *CLI) cacheBackend() string {
	switch {
	case c.noCache:
		return "none"
	case c.config.Cache.Backend == "":
		return "file"
	}
	return c.config.Cache.Backend
}
