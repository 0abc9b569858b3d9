// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Title    lipgloss.Style
	Subtitle lipgloss.Style

	Navbar      lipgloss.Style
	NavbarBrand lipgloss.Style
	NavbarUser  lipgloss.Style
	NavbarHint  lipgloss.Style

	Footer lipgloss.Style

	// ==========================================================================
	// SURFACES
	// ==========================================================================

	Surface      lipgloss.Style
	SurfaceTitle lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Value        lipgloss.Style

	MenuItem         lipgloss.Style
	MenuItemSelected lipgloss.Style

	// ==========================================================================
	// FEEDBACK
	// ==========================================================================

	Error  lipgloss.Style
	Notice lipgloss.Style
	Muted  lipgloss.Style
}

// New builds a theme for the requested mode: "dark", "light", or "auto".
func New(mode string) *Theme {
	isDark := true
	switch mode {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}

	t.Title = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Navbar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Border).
		Padding(0, 1)

	t.NavbarBrand = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.NavbarUser = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.NavbarHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	t.Surface = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	t.SurfaceTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		MarginBottom(1)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.LabelFocused = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Value = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)

	t.MenuItemSelected = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Padding(0, 1)

	t.Error = lipgloss.NewStyle().
		Foreground(Red)

	t.Notice = lipgloss.NewStyle().
		Foreground(Green)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	return t
}

// GlamourStyle returns the glamour style name matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
