// Package cli implements the parsimony command-line interface.
//
// This package provides commands for scoring trees against character
// matrices, searching for most parsimonious trees, rendering archived results
// and serving the HTTP API. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - score: Fitch length and per-character steps of a Newick tree
//   - search: NNI or SPR search for the shortest trees
//   - render: Draw a tree of an archived result as DOT, SVG, PNG or PDF
//   - results: List, show and delete archived results
//   - browse: Interactive result browser
//   - serve: Run the HTTP API
//   - cache: Manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) to show only warnings. Logs go to stderr; results go to stdout.
//
// # Configuration
//
// Defaults are read from $XDG_CONFIG_HOME/parsimony/config.toml; flags that
// are set explicitly win over the file.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "search finished (1.234s)"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
