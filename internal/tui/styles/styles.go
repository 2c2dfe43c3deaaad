// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package styles defines consistent visual styling for TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the styles used in the TUI.
type Styles struct {
	// Color palette
	Primary Color
	Success Color
	Warning Color
	Error   Color
	Muted   Color

	// Component styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	LogPane  lipgloss.Style
	Footer   lipgloss.Style

	// Text styles
	MutedText   lipgloss.Style
	SuccessText lipgloss.Style
	ErrorText   lipgloss.Style
	WarningText lipgloss.Style
}

// Color aliases lipgloss.Color for the palette fields.
type Color = lipgloss.Color

// New creates a new Styles instance with the default Tokyo Night theme.
func New() *Styles {
	primary := lipgloss.Color("#7aa2f7")
	success := lipgloss.Color("#9ece6a")
	warning := lipgloss.Color("#e0af68")
	errorColor := lipgloss.Color("#f7768e")
	muted := lipgloss.Color("#565f89")

	return &Styles{
		Primary: primary,
		Success: success,
		Warning: warning,
		Error:   errorColor,
		Muted:   muted,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		LogPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(muted),

		MutedText:   lipgloss.NewStyle().Foreground(muted),
		SuccessText: lipgloss.NewStyle().Foreground(success),
		ErrorText:   lipgloss.NewStyle().Foreground(errorColor),
		WarningText: lipgloss.NewStyle().Foreground(warning),
	}
}
