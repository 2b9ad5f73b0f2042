// Package cli implements the flowplan command-line interface.
//
// The commands read factory snapshots (JSON or YAML), run them through the
// pipeline and print the outcome:
//
//   - solve: Compute minimal machine counts with the LP solver
//   - flows: Show short inputs and excess outputs at the current counts
//   - propagate: Change one count and scale neighbours by ratio
//   - balance: Raise supplier counts until every input is met
//   - render: Draw the production graph as DOT, SVG, PNG or PDF
//   - edit: Adjust counts interactively in the terminal
//   - serve: Run the HTTP API with Prometheus metrics
//   - cache, config: Manage the result cache and the config file
//
// Status lines go to stdout; log lines go to stderr and include debug
// output with --verbose.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// newLogger writes timestamped lines ("14:32:01.45") to w at level and
// above. Node ids and elapsed times stand out from the other fields.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	styles := log.DefaultStyles()
	styles.Keys["node"] = lipgloss.NewStyle().Foreground(colorAccent)
	styles.Values["node"] = lipgloss.NewStyle().Bold(true)
	styles.Keys["elapsed"] = lipgloss.NewStyle().Foreground(colorDim)
	l.SetStyles(styles)
	return l
}

// stopwatch logs how long a command step took.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time, rounded to the
// millisecond, and any extra key-value pairs.
func (s stopwatch) done(msg string, keyvals ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append([]any{"elapsed", elapsed}, keyvals...)...)
}
