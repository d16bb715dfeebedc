package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/pipeline"
)

// stdout receives all status output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent  = lipgloss.Color("36")  // teal: titles, current row, spinner
	colorOK      = lipgloss.Color("35")  // green: success, cache hits
	colorWarn    = lipgloss.Color("220") // amber: warnings, priority tier
	colorFail    = lipgloss.Color("167") // soft red: errors
	colorCommand = lipgloss.Color("75")  // light blue: suggested commands
	colorValue   = lipgloss.Color("255")
	colorMuted   = lipgloss.Color("245")
	colorFaint   = lipgloss.Color("240")
)

var (
	// StyleTitle for report and table titles.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorFaint)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorValue)

	styleWarnText = lipgloss.NewStyle().Foreground(colorWarn)
	styleSpinner  = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand  = lipgloss.NewStyle().Foreground(colorCommand)
	styleLabel    = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

// A mark is the colored glyph in front of a status line.
type mark struct {
	glyph string
	style lipgloss.Style
}

var (
	markSuccess = mark{"✓", lipgloss.NewStyle().Foreground(colorOK)}
	markError   = mark{"✗", lipgloss.NewStyle().Foreground(colorFail)}
	markWarning = mark{"!", lipgloss.NewStyle().Foreground(colorWarn)}
	markInfo    = mark{"›", lipgloss.NewStyle().Foreground(colorMuted)}
)

func (m mark) line(msg string) string {
	return m.style.Render(m.glyph) + " " + msg
}

// =============================================================================
// Status lines
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, markSuccess.line(fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, markError.line(fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, markWarning.line(styleWarnText.Render(fmt.Sprintf(format, args...))))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, markInfo.line(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests the command to run after this one.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Run summaries
// =============================================================================

// maxWarningsPerKind caps how many warnings of one kind are listed before
// the rest are folded into a count.
const maxWarningsPerKind = 5

// printWarnings lists run warnings grouped by kind, in first-seen order.
func printWarnings(warnings []job.Warning) {
	var kinds []job.WarningKind
	byKind := make(map[job.WarningKind][]job.Warning)
	for _, w := range warnings {
		if _, ok := byKind[w.Kind]; !ok {
			kinds = append(kinds, w.Kind)
		}
		byKind[w.Kind] = append(byKind[w.Kind], w)
	}
	for _, k := range kinds {
		ws := byKind[k]
		for _, w := range ws[:min(len(ws), maxWarningsPerKind)] {
			printWarning("%s", w.Message)
		}
		if extra := len(ws) - maxWarningsPerKind; extra > 0 {
			printDetail("%d more %s warnings", extra, k)
		}
	}
}

// printStats prints the one-line summary of a run: sequenced jobs, total
// changeover, solved groups and whether the sequence came from the cache.
func printStats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%d jobs", len(res.Rows)),
		fmt.Sprintf("changeover %d", res.Stats.TotalCost),
	}
	if n := len(res.Solves); n > 0 {
		parts = append(parts, fmt.Sprintf("%d groups in %s", n, res.Stats.SolveTime.Round(time.Millisecond)))
	}

	status := lipgloss.NewStyle().Foreground(colorMuted).Render("fresh")
	if res.CacheHit {
		status = lipgloss.NewStyle().Foreground(colorOK).Render("cached")
	}

	sep := StyleDim.Render(" · ")
	styled := make([]string, len(parts))
	for i, p := range parts {
		styled[i] = StyleDim.Render(p)
	}
	fmt.Fprintln(stdout, "  "+strings.Join(styled, sep)+sep+status)
}
