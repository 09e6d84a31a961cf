package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/tocgen/internal/batch"
)

var (
	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	updatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	outdatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the run summary
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func statusStyle(st batch.Status) lipgloss.Style {
	switch st {
	case batch.StatusUpdated:
		return updatedStyle
	case batch.StatusOutdated:
		return outdatedStyle
	case batch.StatusFailed:
		return errorStyle
	default:
		return dimStyle
	}
}

// printResult writes one line per file that was touched, checked stale,
// or failed. Unchanged files are listed only when verbose.
func printResult(w io.Writer, res batch.FileResult, verbose bool) {
	if res.Status == batch.StatusUnchanged && !verbose {
		return
	}
	line := fmt.Sprintf("%s %s", statusStyle(res.Status).Render(fmt.Sprintf("%-9s", res.Status)), res.Path)
	if res.Err != nil {
		line += " " + dimStyle.Render(res.Err.Error())
	}
	fmt.Fprintln(w, line)
}

// printSummary renders the per-status counts in a box.
func printSummary(w io.Writer, sum *batch.Summary) {
	parts := make([]string, 0, 4)
	for _, st := range []batch.Status{batch.StatusUpdated, batch.StatusUnchanged, batch.StatusOutdated, batch.StatusFailed} {
		if n := sum.Count(st); n > 0 || st == batch.StatusUpdated {
			parts = append(parts, fmt.Sprintf("%s %d", statusStyle(st).Render(string(st)+":"), n))
		}
	}
	fmt.Fprintln(w, boxStyle.Render(fmt.Sprintf("%s %d  %s",
		dimStyle.Render("files:"), len(sum.Results),
		strings.Join(parts, "  "),
	)))
}
