// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package report renders the final per-backend summary after all update
// runs have joined.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/janderssonse/sysup/internal/updaters"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	tableStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#565f89")).
			Padding(0, 1)
)

// Render produces the styled summary for the given results.
func Render(results []updaters.BackendResult) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("Update summary"))
	out.WriteString("\n\n")

	for _, result := range results {
		out.WriteString(renderBackend(result))
		out.WriteString("\n")
	}

	return out.String()
}

// RenderPlain produces an unstyled summary for pipes and plain mode.
func RenderPlain(results []updaters.BackendResult) string {
	var out strings.Builder

	for _, result := range results {
		status := "ok"
		if !result.Result.Success {
			status = "failed"
		}

		fmt.Fprintf(&out, "%s:%s:%d packages:%s\n",
			result.Backend, status, len(result.Result.Packages), formatDuration(result.Result.Duration()))

		for _, pkg := range result.Result.Packages {
			fmt.Fprintf(&out, "%s:%s:%s->%s\n", result.Backend, pkg.Name, pkg.OldVersion, pkg.NewVersion)
		}

		if result.Result.ErrorMessage != "" {
			fmt.Fprintf(&out, "%s:error:%s\n", result.Backend, result.Result.ErrorMessage)
		}
	}

	return out.String()
}

func renderBackend(result updaters.BackendResult) string {
	var out strings.Builder

	header := fmt.Sprintf("%s  %s", result.Backend, formatDuration(result.Result.Duration()))

	if result.Result.Success {
		out.WriteString(successStyle.Render("✓ " + header))
	} else {
		out.WriteString(failureStyle.Render("✗ " + header))
	}

	out.WriteString("\n")

	if result.Result.ErrorMessage != "" {
		out.WriteString(failureStyle.Render("  " + result.Result.ErrorMessage))
		out.WriteString("\n")

		return out.String()
	}

	if len(result.Result.Packages) == 0 {
		out.WriteString(mutedStyle.Render("  nothing to update"))
		out.WriteString("\n")

		return out.String()
	}

	out.WriteString(tableStyle.Render(packageTable(result)))
	out.WriteString("\n")

	return out.String()
}

// packageTable lays out name, version transition and size columns sized
// by display width, so CJK package names keep the columns aligned.
func packageTable(result updaters.BackendResult) string {
	rows := make([][3]string, 0, len(result.Result.Packages))

	for _, pkg := range result.Result.Packages {
		transition := pkg.NewVersion
		if pkg.OldVersion != "" && pkg.NewVersion != "" {
			transition = pkg.OldVersion + " → " + pkg.NewVersion
		}

		rows = append(rows, [3]string{pkg.Name, transition, pkg.Size})
	}

	var widths [3]int

	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var out strings.Builder

	for i, row := range rows {
		if i > 0 {
			out.WriteString("\n")
		}

		for col, cell := range row {
			out.WriteString(cell)

			if col < 2 {
				out.WriteString(strings.Repeat(" ", widths[col]-runewidth.StringWidth(cell)+2))
			}
		}
	}

	return out.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}

	return d.Round(100 * time.Millisecond).String()
}
