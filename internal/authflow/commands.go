// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ActionResultMsg carries the outcome of a completed action back to the UI.
type ActionResultMsg struct {
	Outcome Outcome
}

// RedirectMsg fires when a deferred transition's delay has elapsed.
type RedirectMsg struct {
	Redirect Redirect
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Each creator wraps a blocking controller action in a tea.Cmd. Commands of
// the same kind are not deduplicated: submitting twice spawns two in-flight
// requests and the last response to arrive wins.

// RegisterCmd submits a registration.
func (c *Controller) RegisterCmd(in RegisterInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.Register(context.Background(), in)}
	}
}

// VerifyOTPCmd submits the emailed verification code.
func (c *Controller) VerifyOTPCmd(in OTPInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.VerifyOTP(context.Background(), in)}
	}
}

// ResendOTPCmd requests a fresh verification code.
func (c *Controller) ResendOTPCmd() tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.ResendOTP(context.Background())}
	}
}

// LoginCmd submits a login.
func (c *Controller) LoginCmd(in LoginInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.Login(context.Background(), in)}
	}
}

// LogoutCmd logs out.
func (c *Controller) LogoutCmd() tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.Logout(context.Background())}
	}
}

// ForgotPasswordCmd requests a recovery code.
func (c *Controller) ForgotPasswordCmd(in ForgotInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.ForgotPassword(context.Background(), in)}
	}
}

// ResetPasswordCmd completes the recovery flow.
func (c *Controller) ResetPasswordCmd(in ResetInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.ResetPassword(context.Background(), in)}
	}
}

// ChangePasswordCmd runs the verify-then-change sequence.
func (c *Controller) ChangePasswordCmd(in ChangeInput) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Outcome: c.ChangePassword(context.Background(), in)}
	}
}

// RedirectCmd schedules a deferred transition.
func RedirectCmd(r Redirect) tea.Cmd {
	return tea.Tick(r.After, func(time.Time) tea.Msg {
		return RedirectMsg{Redirect: r}
	})
}
