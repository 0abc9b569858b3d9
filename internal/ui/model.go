// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/authgate-tui/internal/authflow"
	"github.com/jeranaias/authgate-tui/internal/config"
	"github.com/jeranaias/authgate-tui/internal/ui/styles"
)

// =============================================================================
// FORM FIELD INDICES
// =============================================================================

// Field positions within each surface's form.
const (
	regUsername = 0
	regEmail    = 1
	regPassword = 2

	otpCode = 0

	loginUsername = 0
	loginPassword = 1

	forgotEmail = 0

	resetEmail       = 0
	resetOTP         = 1
	resetNewPassword = 2

	changeCurrent = 0
	changeNew     = 1
)

// landingTargets maps landing menu rows to their destination surfaces.
var landingTargets = []authflow.State{
	authflow.StateLoggingIn,
	authflow.StateRegistering,
	authflow.StateForgotPassword,
}

// landingLabels are the landing menu entries, index-aligned with
// landingTargets.
var landingLabels = []string{
	"Login",
	"Register",
	"Forgot password",
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model for the whole application. It renders the
// surface selected by the controller's flow state and forwards user actions
// to the controller.
type Model struct {
	ctrl  *authflow.Controller
	cfg   *config.Config
	theme *styles.Theme

	width  int
	height int

	// state mirrors the controller's flow state for change detection;
	// the controller remains the owner.
	state authflow.State

	// Per-surface feedback. Exactly one surface is visible, so a single
	// slot suffices; it is cleared on every transition.
	errText    string
	noticeText string

	busy bool
	spin spinner.Model

	menuIndex int
	forms     map[authflow.State]*Form

	showHelp bool
	helpText string

	quitting bool
}

// New creates the UI model around a controller.
func New(ctrl *authflow.Controller, cfg *config.Config) *Model {
	theme := styles.New(cfg.UI.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	forms := map[authflow.State]*Form{
		authflow.StateRegistering: newForm(
			newField("Username", "choose a username", false),
			newField("Email", "you@example.com", false),
			newField("Password", "choose a password", true),
		),
		authflow.StateAwaitingOTP: newForm(
			newField("Verification code", "code from your email", false),
		),
		authflow.StateLoggingIn: newForm(
			newField("Username", "your username", false),
			newField("Password", "your password", true),
		),
		authflow.StateForgotPassword: newForm(
			newField("Email", "you@example.com", false),
		),
		authflow.StateResettingPassword: newForm(
			newField("Email", "you@example.com", false),
			newField("Reset code", "code from your email", false),
			newField("New password", "choose a new password", true),
		),
		authflow.StateChangingPassword: newForm(
			newField("Current password", "your current password", true),
			newField("New password", "choose a new password", true),
		),
	}

	return &Model{
		ctrl:  ctrl,
		cfg:   cfg,
		theme: theme,
		state: ctrl.State(),
		spin:  sp,
		forms: forms,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// form returns the active surface's form, or nil for menu/dashboard
// surfaces.
func (m *Model) form() *Form {
	return m.forms[m.state]
}
