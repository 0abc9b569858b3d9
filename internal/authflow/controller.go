// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/authgate-tui/internal/api"
	"github.com/jeranaias/authgate-tui/internal/session"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// RedirectDelay is the fixed pause before a post-success page transition,
// giving the operator time to read the success notice.
const RedirectDelay = 2 * time.Second

// Fixed user-facing messages. Server-supplied messages take precedence for
// API failures; these are the per-step fallbacks.
const (
	msgFieldsRequired  = "All fields are required."
	msgEmailRequired   = "Please enter your email address."
	msgOTPRequired     = "Please enter the code from your email."
	msgNoPendingEmail  = "Email not found. Please register again."
	msgNoResetPending  = "Please restart the password reset flow."
	msgSessionExpired  = "Session expired. Please login again."
	msgRegisterFailed  = "Registration failed. Please try again."
	msgOTPInvalid      = "Invalid OTP. Please try again."
	msgOTPResent       = "OTP resent successfully! Check your email."
	msgOTPResendFailed = "Failed to resend OTP."
	msgEmailVerified   = "Email verified successfully! Please login."
	msgLoginFailed     = "Invalid username or password."
	msgForgotSent      = "Password reset code sent to your email!"
	msgForgotFailed    = "Failed to send reset code."
	msgResetDone       = "Password reset successfully!"
	msgResetFailed     = "Failed to reset password."
	msgWrongPassword   = "Current password is incorrect."
	msgChangeDone      = "Password changed successfully!"
	msgChangeFailed    = "Failed to change password."
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Gateway is the slice of the API client the controller drives.
// *api.Client satisfies it; tests substitute fakes.
type Gateway interface {
	Register(ctx context.Context, username, email, password string) error
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	RequestOTP(ctx context.Context, email, purpose string) error
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
	VerifyPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, token, current, newPassword string) error
}

// SessionStore persists the session. *session.Store satisfies it.
type SessionStore interface {
	Save(token string, user *session.UserProfile) error
	Load() session.Session
	Clear() error
}

// =============================================================================
// ACTION INPUTS
// =============================================================================

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// OTPInput carries the verification code.
type OTPInput struct {
	Code string
}

// LoginInput carries the login form fields.
type LoginInput struct {
	Username string
	Password string
}

// ForgotInput carries the recovery request form fields.
type ForgotInput struct {
	Email string
}

// ResetInput carries the recovery completion form fields.
type ResetInput struct {
	Email       string
	OTP         string
	NewPassword string
}

// ChangeInput carries the password change form fields.
type ChangeInput struct {
	Current string
	New     string
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome describes the result of an action: the state to render, the
// feedback for the active surface, and an optional delayed transition.
// Moving to a new state implicitly clears the destination's previous
// error/notice text; Err and Notice here replace it.
type Outcome struct {
	State     State
	Err       string
	Notice    string
	Redirect  *Redirect
	ClearForm bool
}

// Redirect is a deferred state transition that fires after a fixed delay.
type Redirect struct {
	To           State
	After        time.Duration
	PrefillEmail string
}

// PendingVerification links an in-progress registration to the email
// awaiting OTP confirmation.
type PendingVerification struct {
	Email string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the flow state and the transient verification records.
// All cross-component work goes through the injected Gateway and
// SessionStore; the controller holds no presentation state.
//
// Action methods block on the network call and may run from concurrent
// bubbletea commands. State is read before the call and written after it
// under the lock; overlapping in-flight actions of the same kind are not
// deduplicated, so the last response to arrive wins.
type Controller struct {
	mu      sync.Mutex
	gateway Gateway
	store   SessionStore

	state   State
	session session.Session
	pending *PendingVerification

	// resetEmail is set when a recovery code was requested; it gates entry
	// to the reset form.
	resetEmail string
}

// New restores the persisted session and returns a controller in the
// appropriate initial state: authenticated when a session was restored,
// landing otherwise.
func New(gateway Gateway, store SessionStore) *Controller {
	c := &Controller{
		gateway: gateway,
		store:   store,
	}
	c.session = store.Load()
	if c.session.IsEmpty() {
		c.state = StateLanding
	} else {
		c.state = StateAuthenticated
	}
	return c
}

// State returns the active flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current session value.
func (c *Controller) Session() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// PendingEmail returns the email awaiting OTP confirmation, or "".
func (c *Controller) PendingEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return ""
	}
	return c.pending.Email
}

// ResetEmail returns the email a recovery code was requested for, or "".
func (c *Controller) ResetEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetEmail
}

// =============================================================================
// LOCAL NAVIGATION
// =============================================================================

// Goto performs a local (no network) transition between surfaces.
// Entering the OTP or reset surfaces without their transient records is an
// immediate local failure: the state does not change.
func (c *Controller) Goto(to State) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch to {
	case StateAwaitingOTP:
		if c.pending == nil {
			return Outcome{State: c.state, Err: msgNoPendingEmail}
		}
	case StateResettingPassword:
		if c.resetEmail == "" {
			return Outcome{State: c.state, Err: msgNoResetPending}
		}
	case StateAuthenticated, StateChangingPassword:
		if c.session.IsEmpty() {
			return Outcome{State: c.state, Err: msgSessionExpired}
		}
	default:
		if !to.preLogin() {
			return Outcome{State: c.state}
		}
	}

	c.state = to
	return Outcome{State: to}
}

// CompleteRedirect applies a deferred transition once its delay elapsed.
func (c *Controller) CompleteRedirect(r Redirect) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = r.To
	return Outcome{State: r.To}
}

// =============================================================================
// REGISTRATION AND EMAIL VERIFICATION
// =============================================================================

// Register submits a new account. Success stores the pending verification
// email and moves to the OTP step; failure stays put with a message.
func (c *Controller) Register(ctx context.Context, in RegisterInput) Outcome {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return Outcome{State: c.State(), Err: msgFieldsRequired}
	}

	if err := c.gateway.Register(ctx, in.Username, in.Email, in.Password); err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgRegisterFailed)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A new registration overwrites any earlier pending verification.
	c.pending = &PendingVerification{Email: in.Email}
	c.state = StateAwaitingOTP
	return Outcome{State: StateAwaitingOTP}
}

// VerifyOTP confirms the emailed code for the pending registration.
// Without a pending verification no network call is made.
func (c *Controller) VerifyOTP(ctx context.Context, in OTPInput) Outcome {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return Outcome{State: c.State(), Err: msgNoPendingEmail}
	}
	if in.Code == "" {
		return Outcome{State: c.State(), Err: msgOTPRequired}
	}

	if _, err := c.gateway.VerifyOTP(ctx, pending.Email, in.Code); err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgOTPInvalid)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.state = StateLoggingIn
	return Outcome{State: StateLoggingIn, Notice: msgEmailVerified, ClearForm: true}
}

// ResendOTP requests a fresh verification code for the pending email.
// The pending verification survives resends, successful or not.
func (c *Controller) ResendOTP(ctx context.Context) Outcome {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return Outcome{State: c.State(), Err: msgNoPendingEmail}
	}

	if err := c.gateway.RequestOTP(ctx, pending.Email, api.PurposeEmailVerification); err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgOTPResendFailed)}
	}
	return Outcome{State: c.State(), Notice: msgOTPResent}
}

// =============================================================================
// LOGIN AND LOGOUT
// =============================================================================

// Login authenticates and, on success, persists the session and enters the
// authenticated state. Fields absent from the response payload fall back to
// the submitted username, an empty email, and the LOCAL provider.
func (c *Controller) Login(ctx context.Context, in LoginInput) Outcome {
	if in.Username == "" || in.Password == "" {
		return Outcome{State: c.State(), Err: msgFieldsRequired}
	}

	result, err := c.gateway.Login(ctx, in.Username, in.Password)
	if err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgLoginFailed)}
	}
	// A success response without a token cannot establish a session.
	if result.Token == "" {
		return Outcome{State: c.State(), Err: msgLoginFailed}
	}

	user := &session.UserProfile{
		Username: result.Username,
		Email:    result.Email,
		Provider: result.Provider,
	}
	if user.Username == "" {
		user.Username = in.Username
	}
	if user.Provider == "" {
		user.Provider = "LOCAL"
	}

	if err := c.store.Save(result.Token, user); err != nil {
		// Persistence failure degrades to a non-persistent session.
		log.Printf("session save failed: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session.Session{Token: result.Token, User: user}
	c.state = StateAuthenticated
	return Outcome{State: StateAuthenticated, ClearForm: true}
}

// Logout invalidates the server session best-effort and clears local state
// unconditionally. The outcome is identical whether the call succeeds or
// fails; failures are never surfaced.
func (c *Controller) Logout(ctx context.Context) Outcome {
	c.mu.Lock()
	token := c.session.Token
	c.mu.Unlock()

	if token != "" {
		if err := c.gateway.Logout(ctx, token); err != nil {
			log.Printf("logout call failed (session cleared anyway): %v", err)
		}
	}

	if err := c.store.Clear(); err != nil {
		log.Printf("session clear failed: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session.Session{}
	c.pending = nil
	c.resetEmail = ""
	c.state = StateLanding
	return Outcome{State: StateLanding, ClearForm: true}
}

// =============================================================================
// PASSWORD RECOVERY
// =============================================================================

// ForgotPassword requests a recovery code. Success shows a notice, then
// moves to the reset form after a fixed delay with the email prefilled.
func (c *Controller) ForgotPassword(ctx context.Context, in ForgotInput) Outcome {
	if in.Email == "" {
		return Outcome{State: c.State(), Err: msgEmailRequired}
	}

	if err := c.gateway.ForgotPassword(ctx, in.Email); err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgForgotFailed)}
	}

	c.mu.Lock()
	c.resetEmail = in.Email
	state := c.state
	c.mu.Unlock()

	return Outcome{
		State:  state,
		Notice: msgForgotSent,
		Redirect: &Redirect{
			To:           StateResettingPassword,
			After:        RedirectDelay,
			PrefillEmail: in.Email,
		},
	}
}

// ResetPassword completes recovery with the emailed code. Success returns
// to the login surface after a fixed delay.
func (c *Controller) ResetPassword(ctx context.Context, in ResetInput) Outcome {
	if in.Email == "" || in.OTP == "" || in.NewPassword == "" {
		return Outcome{State: c.State(), Err: msgFieldsRequired}
	}

	if err := c.gateway.ResetPassword(ctx, in.Email, in.OTP, in.NewPassword); err != nil {
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgResetFailed)}
	}

	c.mu.Lock()
	c.resetEmail = ""
	state := c.state
	c.mu.Unlock()

	return Outcome{
		State:     state,
		Notice:    msgResetDone,
		ClearForm: true,
		Redirect: &Redirect{
			To:    StateLoggingIn,
			After: RedirectDelay,
		},
	}
}

// =============================================================================
// PASSWORD CHANGE
// =============================================================================

// ChangePassword verifies the current password and, only if that succeeds,
// issues the change. The two calls are sequential, never raced. A verify
// rejection shows a fixed message (transport failures surface as the
// network message instead); a change failure shows the server's.
func (c *Controller) ChangePassword(ctx context.Context, in ChangeInput) Outcome {
	c.mu.Lock()
	token := c.session.Token
	c.mu.Unlock()

	if token == "" {
		return c.invalidateSession()
	}
	if in.Current == "" || in.New == "" {
		return Outcome{State: c.State(), Err: msgFieldsRequired}
	}

	if err := c.gateway.VerifyPassword(ctx, token, in.Current); err != nil {
		if api.IsUnauthorized(err) {
			return c.invalidateSession()
		}
		if errors.Is(err, api.ErrNetwork) {
			return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgWrongPassword)}
		}
		// A verify rejection always reads the same, whatever the server said.
		return Outcome{State: c.State(), Err: msgWrongPassword}
	}

	if err := c.gateway.ChangePassword(ctx, token, in.Current, in.New); err != nil {
		if api.IsUnauthorized(err) {
			return c.invalidateSession()
		}
		return Outcome{State: c.State(), Err: api.ErrorMessage(err, msgChangeFailed)}
	}

	return Outcome{
		State:     c.State(),
		Notice:    msgChangeDone,
		ClearForm: true,
		Redirect: &Redirect{
			To:    StateAuthenticated,
			After: RedirectDelay,
		},
	}
}

// invalidateSession destroys the session after a request signalled the
// token is invalid or expired.
func (c *Controller) invalidateSession() Outcome {
	if err := c.store.Clear(); err != nil {
		log.Printf("session clear failed: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session.Session{}
	c.pending = nil
	c.state = StateLanding
	return Outcome{State: StateLanding, Err: msgSessionExpired, ClearForm: true}
}
