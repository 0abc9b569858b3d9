// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authflow implements the authentication flow state machine.
package authflow

// =============================================================================
// FLOW STATES
// =============================================================================

// State names the currently active authentication step. Exactly one state
// is active at a time; it is owned exclusively by the Controller.
type State int

const (
	// StateLanding is the unauthenticated entry surface.
	StateLanding State = iota

	// StateRegistering is the account registration form.
	StateRegistering

	// StateAwaitingOTP is the email verification step after registration.
	StateAwaitingOTP

	// StateLoggingIn is the login form.
	StateLoggingIn

	// StateAuthenticated is the signed-in steady state (dashboard).
	StateAuthenticated

	// StateForgotPassword is the recovery request form.
	StateForgotPassword

	// StateResettingPassword is the recovery completion form.
	StateResettingPassword

	// StateChangingPassword is the signed-in password change form.
	StateChangingPassword
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLanding:
		return "landing"
	case StateRegistering:
		return "registering"
	case StateAwaitingOTP:
		return "awaiting_otp"
	case StateLoggingIn:
		return "logging_in"
	case StateAuthenticated:
		return "authenticated"
	case StateForgotPassword:
		return "forgot_password"
	case StateResettingPassword:
		return "resetting_password"
	case StateChangingPassword:
		return "changing_password"
	default:
		return "unknown"
	}
}

// ShowsNavbar reports whether the authenticated navigation chrome is
// visible in this state.
func (s State) ShowsNavbar() bool {
	return s == StateAuthenticated || s == StateChangingPassword
}

// preLogin reports whether s belongs to the unauthenticated surface group
// that is freely navigable (no transient flow state required).
func (s State) preLogin() bool {
	switch s {
	case StateLanding, StateRegistering, StateLoggingIn, StateForgotPassword:
		return true
	}
	return false
}
