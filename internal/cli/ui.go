package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/parsimony/pkg/pipeline"
	"github.com/matzehuels/parsimony/pkg/search"
)

// stdout receives command results; tests replace it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Result Display
// =============================================================================

// printStats prints matrix size and cache status on a single line.
func printStats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%d taxa", len(res.Taxa)),
		fmt.Sprintf("%d characters", res.NumChars),
	}
	if res.Kind == pipeline.KindSearch {
		parts = append(parts, fmt.Sprintf("%d rearrangements", res.Rearrangements))
	}

	status := iconFresh
	statusStyle := styleComputed
	if res.Cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(stdout, line)
}

// printResult prints a full result: header, statistics, indices and trees.
func printResult(res *pipeline.Result) {
	switch res.Kind {
	case pipeline.KindScore:
		printSuccess("Tree length %s", StyleNumber.Render(fmt.Sprint(res.Length)))
	default:
		printSuccess("Best length %s, %s",
			StyleNumber.Render(fmt.Sprint(res.Length)), pluralize(len(res.Trees), "tree"))
	}
	printStats(res)
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	if res.Kind == pipeline.KindSearch && res.Stop != string(search.StopConverged) {
		printWarning("search stopped at limit (%s)", res.Stop)
	}

	fmt.Fprintln(stdout)
	printKeyValue("id", res.ID)
	if res.Method != "" {
		printKeyValue("method", res.Method)
		printKeyValue("replicates", fmt.Sprint(res.Replicates))
		printKeyValue("improvements", fmt.Sprint(res.Improvements))
	}
	if res.Indices != nil {
		printKeyValue("CI", fmt.Sprintf("%.4f", res.Indices.CI))
		printKeyValue("RI", fmt.Sprintf("%.4f", res.Indices.RI))
	}
	if len(res.Steps) > 0 {
		printKeyValue("steps", joinInts(res.Steps))
	}
	printKeyValue("duration", res.Duration.String())

	fmt.Fprintln(stdout)
	for _, t := range res.Trees {
		fmt.Fprintln(stdout, t)
	}
}

// printResultTable prints archived results as a table, newest first.
func printResultTable(results []*pipeline.Result) {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = resultRow(r)
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(resultHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(stdout, t.Render())
}

var resultHeaders = []string{"ID", "Kind", "Length", "Trees", "Taxa", "Chars", "Created"}

func resultRow(r *pipeline.Result) []string {
	return []string{
		shortID(r.ID),
		string(r.Kind),
		fmt.Sprint(r.Length),
		fmt.Sprint(len(r.Trees)),
		fmt.Sprint(len(r.Taxa)),
		fmt.Sprint(r.NumChars),
		r.CreatedAt.Local().Format("2006-01-02 15:04"),
	}
}

// =============================================================================
// Utilities
// =============================================================================

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}
