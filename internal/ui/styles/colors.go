// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the authgate TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLOR PALETTE
// =============================================================================

// Core palette. Adaptive pairs pick the variant matching the terminal
// background.
var (
	Cyan    = lipgloss.AdaptiveColor{Light: "30", Dark: "86"}
	Green   = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	Red     = lipgloss.AdaptiveColor{Light: "124", Dark: "196"}
	Yellow  = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
	Magenta = lipgloss.AdaptiveColor{Light: "90", Dark: "212"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "240", Dark: "246"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}

	Border = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
)
