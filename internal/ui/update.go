// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authgate-tui/internal/authflow"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case authflow.ActionResultMsg:
		return m.applyOutcome(msg.Outcome)

	case authflow.RedirectMsg:
		out := m.ctrl.CompleteRedirect(msg.Redirect)
		model, cmd := m.applyOutcome(out)
		if msg.Redirect.PrefillEmail != "" {
			if f := m.forms[msg.Redirect.To]; f != nil {
				f.SetValue(resetEmail, msg.Redirect.PrefillEmail)
			}
		}
		return model, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyOutcome applies a controller outcome to the presentation: state
// change, feedback text, form resets, and any deferred transition.
func (m *Model) applyOutcome(out authflow.Outcome) (tea.Model, tea.Cmd) {
	m.busy = false

	if out.State != m.state {
		// Transition: clear the destination's stale feedback and form.
		m.state = out.State
		m.errText = ""
		m.noticeText = ""
		if f := m.forms[out.State]; f != nil {
			f.Reset()
		}
	}
	if out.ClearForm {
		if f := m.forms[out.State]; f != nil {
			f.Reset()
		}
	}

	m.errText = out.Err
	m.noticeText = out.Notice

	if out.Redirect != nil {
		return m, authflow.RedirectCmd(*out.Redirect)
	}
	return m, nil
}

// submit starts an action command and the busy spinner.
func (m *Model) submit(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.errText = ""
	m.noticeText = ""
	return m, tea.Batch(m.spin.Tick, cmd)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes a key press by the active surface.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.state {
	case authflow.StateLanding:
		return m.handleLandingKey(msg)
	case authflow.StateAuthenticated:
		return m.handleDashboardKey(msg)
	default:
		return m.handleFormKey(msg)
	}
}

// handleLandingKey drives the landing menu.
func (m *Model) handleLandingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.openHelp()
		return m, nil
	case "up", "k":
		m.menuIndex = (m.menuIndex - 1 + len(landingTargets)) % len(landingTargets)
		return m, nil
	case "down", "j":
		m.menuIndex = (m.menuIndex + 1) % len(landingTargets)
		return m, nil
	case "enter":
		return m.applyOutcome(m.ctrl.Goto(landingTargets[m.menuIndex]))
	case "l":
		return m.applyOutcome(m.ctrl.Goto(authflow.StateLoggingIn))
	case "r":
		return m.applyOutcome(m.ctrl.Goto(authflow.StateRegistering))
	case "f":
		return m.applyOutcome(m.ctrl.Goto(authflow.StateForgotPassword))
	}
	return m, nil
}

// handleDashboardKey drives the authenticated dashboard.
func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.openHelp()
		return m, nil
	case "c":
		return m.applyOutcome(m.ctrl.Goto(authflow.StateChangingPassword))
	case "l":
		return m.submit(m.ctrl.LogoutCmd())
	}
	return m, nil
}

// handleFormKey drives the form surfaces.
func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.form()
	if form == nil {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m.applyOutcome(m.ctrl.Goto(m.backTarget()))
	case "tab", "down":
		return m, form.Next()
	case "shift+tab", "up":
		return m, form.Prev()
	case "enter":
		return m.submitForm(form)
	case "ctrl+r":
		if m.state == authflow.StateAwaitingOTP {
			return m.submit(m.ctrl.ResendOTPCmd())
		}
	}

	return m, form.Update(msg)
}

// backTarget returns where esc leads from the active surface.
func (m *Model) backTarget() authflow.State {
	switch m.state {
	case authflow.StateChangingPassword:
		return authflow.StateAuthenticated
	case authflow.StateResettingPassword:
		return authflow.StateLoggingIn
	default:
		return authflow.StateLanding
	}
}

// submitForm dispatches the active surface's action.
func (m *Model) submitForm(form *Form) (tea.Model, tea.Cmd) {
	switch m.state {
	case authflow.StateRegistering:
		return m.submit(m.ctrl.RegisterCmd(authflow.RegisterInput{
			Username: form.Value(regUsername),
			Email:    form.Value(regEmail),
			Password: form.Value(regPassword),
		}))

	case authflow.StateAwaitingOTP:
		return m.submit(m.ctrl.VerifyOTPCmd(authflow.OTPInput{
			Code: form.Value(otpCode),
		}))

	case authflow.StateLoggingIn:
		return m.submit(m.ctrl.LoginCmd(authflow.LoginInput{
			Username: form.Value(loginUsername),
			Password: form.Value(loginPassword),
		}))

	case authflow.StateForgotPassword:
		return m.submit(m.ctrl.ForgotPasswordCmd(authflow.ForgotInput{
			Email: form.Value(forgotEmail),
		}))

	case authflow.StateResettingPassword:
		return m.submit(m.ctrl.ResetPasswordCmd(authflow.ResetInput{
			Email:       form.Value(resetEmail),
			OTP:         form.Value(resetOTP),
			NewPassword: form.Value(resetNewPassword),
		}))

	case authflow.StateChangingPassword:
		return m.submit(m.ctrl.ChangePasswordCmd(authflow.ChangeInput{
			Current: form.Value(changeCurrent),
			New:     form.Value(changeNew),
		}))
	}

	return m, nil
}
