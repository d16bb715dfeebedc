// Package cli implements the changeover command-line interface.
//
// This package provides commands for sequencing production jobs from BOM
// analysis exports, viewing saved reports, serving the HTTP API, and
// managing the sequence cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - optimize: Sequence jobs and write CSV, JSON and diagram reports
//   - view: Browse a JSON report in the terminal
//   - serve: Run the HTTP API
//   - runs: List and show recorded runs
//   - cache: Manage the sequence cache
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/changeover/config.toml (or --config).
// Flags always win over the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// prints solver progress for each group.
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

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Sequenced 42 jobs (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
