package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/buildinfo"
	"github.com/matzehuels/parsimony/pkg/cache"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "parsimony"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	config     *Config
	configFile string
	verbose    bool
	quiet      bool
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: &Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Parsimony scores and searches phylogenetic trees",
		Long: `Parsimony scores trees against discrete character matrices with the
Fitch algorithm and searches tree space by NNI or SPR rearrangement.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&c.quiet, "quiet", "q", false, "only log warnings and errors")
	flags.StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/parsimony/config.toml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the result cache")

	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.resultsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// setup applies the logging flags and loads the config file.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	switch {
	case c.verbose:
		c.SetLogLevel(LogDebug)
	case c.quiet:
		c.SetLogLevel(LogWarn)
	}

	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			c.Logger.Debug("no config directory", "error", err)
			return nil
		}
		path = p
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("config loaded", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	ttl, err := c.config.cacheTTL()
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.TTL = ttl
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := cache.Config{
		Backend:   c.config.Cache.Backend,
		RedisAddr: c.config.Cache.RedisAddr,
	}
	if c.noCache {
		cfg.Backend = cache.BackendNone
	}
	if cfg.Backend == "" || cfg.Backend == cache.BackendFile {
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		cfg.Dir = dir
	}
	store, err := cache.Open(ctx, cfg)
	if stderrors.Is(err, cache.ErrUnavailable) {
		c.Logger.Warn("cache unavailable, continuing without it", "backend", cfg.Backend, "error", err)
		return cache.NewNullCache(), nil
	}
	return store, err
}

// openArchive opens the configured result archive.
func (c *CLI) openArchive(ctx context.Context) (archive.Store, error) {
	cfg := archive.Config{
		Backend:       c.config.Archive.Backend,
		MongoURI:      c.config.Archive.MongoURI,
		MongoDatabase: c.config.Archive.MongoDatabase,
	}
	if cfg.Backend == "" || cfg.Backend == archive.BackendFile {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = filepath.Join(dir, "results")
	}
	return archive.Open(ctx, cfg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/parsimony/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/parsimony/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory (~/.local/share/parsimony/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
