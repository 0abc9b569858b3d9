// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/authgate-tui/internal/authflow"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model. Exactly one surface is visible at a time; the
// navbar renders only in the authenticated states.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	if m.state.ShowsNavbar() {
		b.WriteString(m.viewNavbar())
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(m.helpText)
		b.WriteString("\n")
		b.WriteString(m.theme.Footer.Render("press any key to close help"))
		return b.String()
	}

	b.WriteString(m.viewSurface())
	b.WriteString("\n")
	b.WriteString(m.viewFeedback())
	b.WriteString("\n")
	b.WriteString(m.viewFooter())

	return b.String()
}

// viewNavbar renders the authenticated navigation chrome.
func (m *Model) viewNavbar() string {
	brand := m.theme.NavbarBrand.Render("authgate")

	user := ""
	if sess := m.ctrl.Session(); sess.User != nil {
		user = m.theme.NavbarUser.Render("Hello, " + sess.User.Username)
	}
	hint := m.theme.NavbarHint.Render("c change password · l logout")

	left := brand
	right := user + "  " + hint

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return m.theme.Navbar.Render(left + strings.Repeat(" ", gap) + right)
}

// viewSurface renders the surface for the active flow state.
func (m *Model) viewSurface() string {
	switch m.state {
	case authflow.StateLanding:
		return m.viewLanding()
	case authflow.StateRegistering:
		return m.surfaceWithForm("Create account", "enter submits · esc back")
	case authflow.StateAwaitingOTP:
		return m.viewAwaitingOTP()
	case authflow.StateLoggingIn:
		return m.surfaceWithForm("Login", "enter submits · esc back")
	case authflow.StateAuthenticated:
		return m.viewDashboard()
	case authflow.StateForgotPassword:
		return m.surfaceWithForm("Forgot password", "enter submits · esc back")
	case authflow.StateResettingPassword:
		return m.surfaceWithForm("Reset password", "enter submits · esc back")
	case authflow.StateChangingPassword:
		return m.surfaceWithForm("Change password", "enter submits · esc back")
	default:
		return ""
	}
}

// viewLanding renders the entry menu.
func (m *Model) viewLanding() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("authgate"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Sign in to your account or create a new one."))
	b.WriteString("\n\n")

	for i, label := range landingLabels {
		if i == m.menuIndex {
			b.WriteString(m.theme.MenuItemSelected.Render("› " + label))
		} else {
			b.WriteString(m.theme.MenuItem.Render(label))
		}
		b.WriteString("\n")
	}

	return m.theme.Surface.Render(b.String())
}

// viewAwaitingOTP renders the email verification step, showing which
// address the code was sent to.
func (m *Model) viewAwaitingOTP() string {
	var b strings.Builder
	b.WriteString(m.theme.SurfaceTitle.Render("Verify your email"))
	b.WriteString("\n")

	email := m.ctrl.PendingEmail()
	b.WriteString(m.theme.Subtitle.Render("We sent a code to " + m.theme.Value.Render(email)))
	b.WriteString("\n\n")

	if f := m.form(); f != nil {
		b.WriteString(f.View(m.theme))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render("enter submits · ctrl+r resend code · esc back"))

	return m.theme.Surface.Render(b.String())
}

// viewDashboard renders the authenticated profile card.
func (m *Model) viewDashboard() string {
	sess := m.ctrl.Session()
	if sess.User == nil {
		return ""
	}

	row := func(label, value string) string {
		return m.theme.Label.Render(padLabel(label, 10)) + m.theme.Value.Render(value)
	}

	var b strings.Builder
	b.WriteString(m.theme.SurfaceTitle.Render("Dashboard"))
	b.WriteString("\n")
	b.WriteString(row("Username", sess.User.Username))
	b.WriteString("\n")
	b.WriteString(row("Email", sess.User.Email))
	b.WriteString("\n")
	b.WriteString(row("Provider", sess.User.Provider))

	return m.theme.Surface.Render(b.String())
}

// surfaceWithForm renders a titled form surface.
func (m *Model) surfaceWithForm(title, hint string) string {
	var b strings.Builder
	b.WriteString(m.theme.SurfaceTitle.Render(title))
	b.WriteString("\n")
	if f := m.form(); f != nil {
		b.WriteString(f.View(m.theme))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render(hint))
	return m.theme.Surface.Render(b.String())
}

// viewFeedback renders the active surface's error or notice line.
func (m *Model) viewFeedback() string {
	switch {
	case m.busy:
		return m.spin.View() + m.theme.Muted.Render(" working...")
	case m.errText != "":
		return m.theme.Error.Render(m.errText)
	case m.noticeText != "":
		return m.theme.Notice.Render(m.noticeText)
	default:
		return ""
	}
}

// viewFooter renders the global key hints.
func (m *Model) viewFooter() string {
	hints := []string{"ctrl+c quit"}
	if m.state == authflow.StateLanding || m.state == authflow.StateAuthenticated {
		hints = append([]string{"q quit"}, hints...)
		if m.cfg.UI.ShowHelpHint {
			hints = append(hints, "? help")
		}
	}
	return m.theme.Footer.Render(strings.Join(hints, " · "))
}

// padLabel pads a label to a fixed display width, accounting for wide
// runes.
func padLabel(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap < 1 {
		gap = 1
	}
	return s + strings.Repeat(" ", gap)
}
