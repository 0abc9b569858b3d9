// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/authgate-tui/internal/api"
	"github.com/jeranaias/authgate-tui/internal/session"
)

// =============================================================================
// FAKE GATEWAY
// =============================================================================

// fakeGateway records calls and returns configured results.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	registerErr   error
	verifyOTPErr  error
	requestOTPErr error
	loginResult   *api.LoginResult
	loginErr      error
	logoutErr     error
	forgotErr     error
	resetErr      error
	verifyPassErr error
	changeErr     error
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *fakeGateway) callNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Register(_ context.Context, _, _, _ string) error {
	g.record("register")
	return g.registerErr
}

func (g *fakeGateway) VerifyOTP(_ context.Context, email, _ string) (string, error) {
	g.record("verifyOTP")
	if g.verifyOTPErr != nil {
		return "", g.verifyOTPErr
	}
	return email, nil
}

func (g *fakeGateway) RequestOTP(_ context.Context, _, _ string) error {
	g.record("requestOTP")
	return g.requestOTPErr
}

func (g *fakeGateway) Login(_ context.Context, _, _ string) (*api.LoginResult, error) {
	g.record("login")
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	return g.loginResult, nil
}

func (g *fakeGateway) Logout(_ context.Context, _ string) error {
	g.record("logout")
	return g.logoutErr
}

func (g *fakeGateway) ForgotPassword(_ context.Context, _ string) error {
	g.record("forgotPassword")
	return g.forgotErr
}

func (g *fakeGateway) ResetPassword(_ context.Context, _, _, _ string) error {
	g.record("resetPassword")
	return g.resetErr
}

func (g *fakeGateway) VerifyPassword(_ context.Context, _, _ string) error {
	g.record("verifyPassword")
	return g.verifyPassErr
}

func (g *fakeGateway) ChangePassword(_ context.Context, _, _, _ string) error {
	g.record("changePassword")
	return g.changeErr
}

// newTestController wires a fake gateway to an in-memory store.
func newTestController(gw *fakeGateway) *Controller {
	return New(gw, session.OpenInMemory())
}

// loggedInController returns a controller in the authenticated state.
func loggedInController(t *testing.T, gw *fakeGateway) *Controller {
	t.Helper()
	gw.loginResult = &api.LoginResult{
		Token: "tok-1", Username: "alice", Email: "a@x.com", Provider: "LOCAL",
	}
	c := newTestController(gw)
	out := c.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})
	require.Equal(t, StateAuthenticated, out.State)
	return c
}

// =============================================================================
// INITIAL STATE
// =============================================================================

func TestNew_EmptyStoreStartsAtLanding(t *testing.T) {
	c := newTestController(&fakeGateway{})
	require.Equal(t, StateLanding, c.State())
	require.True(t, c.Session().IsEmpty())
}

func TestNew_RestoredSessionStartsAuthenticated(t *testing.T) {
	store := session.OpenInMemory()
	require.NoError(t, store.Save("tok-9", &session.UserProfile{
		Username: "bob", Email: "b@x.com", Provider: "LOCAL",
	}))

	c := New(&fakeGateway{}, store)
	require.Equal(t, StateAuthenticated, c.State())
	require.Equal(t, "tok-9", c.Session().Token)
	require.Equal(t, "bob", c.Session().User.Username)
}

// =============================================================================
// REGISTRATION AND OTP
// =============================================================================

func TestRegister_SuccessMovesToOTPStep(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	out := c.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw",
	})

	require.Equal(t, StateAwaitingOTP, out.State)
	require.Equal(t, StateAwaitingOTP, c.State())
	require.Equal(t, "a@x.com", c.PendingEmail())
}

func TestRegister_MissingFieldsMakesNoCall(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	out := c.Register(context.Background(), RegisterInput{Username: "alice"})

	require.Equal(t, StateLanding, out.State)
	require.NotEmpty(t, out.Err)
	require.Empty(t, gw.callNames())
}

func TestRegister_FailureShowsServerMessage(t *testing.T) {
	gw := &fakeGateway{
		registerErr: &api.APIError{Status: 409, Message: "username taken"},
	}
	c := newTestController(gw)

	out := c.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw",
	})

	require.Equal(t, StateLanding, out.State)
	require.Equal(t, "username taken", out.Err)
	require.Empty(t, c.PendingEmail())
}

func TestRegister_OverwritesEarlierPendingVerification(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	c.Register(context.Background(), RegisterInput{Username: "a", Email: "first@x.com", Password: "pw"})
	c.Register(context.Background(), RegisterInput{Username: "b", Email: "second@x.com", Password: "pw"})

	require.Equal(t, "second@x.com", c.PendingEmail())
}

func TestVerifyOTP_WithoutPendingMakesNoCall(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	out := c.VerifyOTP(context.Background(), OTPInput{Code: "123456"})

	require.Equal(t, StateLanding, out.State)
	require.NotEmpty(t, out.Err)
	require.Empty(t, gw.callNames())
	require.Equal(t, StateLanding, c.State())
}

func TestVerifyOTP_SuccessDiscardsPending(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)
	c.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})

	out := c.VerifyOTP(context.Background(), OTPInput{Code: "123456"})

	require.Equal(t, StateLoggingIn, out.State)
	require.NotEmpty(t, out.Notice)
	require.Empty(t, c.PendingEmail())
}

func TestVerifyOTP_FailureKeepsPending(t *testing.T) {
	gw := &fakeGateway{verifyOTPErr: &api.APIError{Status: 400}}
	c := newTestController(gw)
	c.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})

	out := c.VerifyOTP(context.Background(), OTPInput{Code: "000000"})

	require.Equal(t, StateAwaitingOTP, out.State)
	require.Equal(t, "Invalid OTP. Please try again.", out.Err)
	require.Equal(t, "a@x.com", c.PendingEmail())
}

func TestResendOTP_TwiceKeepsPending(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)
	c.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})

	first := c.ResendOTP(context.Background())
	second := c.ResendOTP(context.Background())

	require.NotEmpty(t, first.Notice)
	require.NotEmpty(t, second.Notice)
	require.Equal(t, "a@x.com", c.PendingEmail())
	require.Equal(t, []string{"register", "requestOTP", "requestOTP"}, gw.callNames())
}

func TestResendOTP_FailureKeepsPending(t *testing.T) {
	gw := &fakeGateway{requestOTPErr: api.ErrNetwork}
	c := newTestController(gw)
	c.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})

	out := c.ResendOTP(context.Background())

	require.Equal(t, "Network error. Please check your connection.", out.Err)
	require.Equal(t, "a@x.com", c.PendingEmail())
	require.Equal(t, StateAwaitingOTP, c.State())
}

// =============================================================================
// LOGIN AND LOGOUT
// =============================================================================

func TestLogin_SuccessPersistsSession(t *testing.T) {
	gw := &fakeGateway{loginResult: &api.LoginResult{
		Token: "abc123", Username: "alice", Email: "a@x.com", Provider: "LOCAL",
	}}
	store := session.OpenInMemory()
	c := New(gw, store)

	out := c.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})

	require.Equal(t, StateAuthenticated, out.State)
	require.Equal(t, "abc123", c.Session().Token)
	require.Equal(t, session.UserProfile{
		Username: "alice", Email: "a@x.com", Provider: "LOCAL",
	}, *c.Session().User)

	// Persisted, not just held in memory.
	persisted := store.Load()
	require.Equal(t, "abc123", persisted.Token)
	require.Equal(t, "alice", persisted.User.Username)
}

func TestLogin_FailureLeavesSessionEmpty(t *testing.T) {
	gw := &fakeGateway{loginErr: &api.APIError{Status: 401}}
	c := newTestController(gw)

	out := c.Login(context.Background(), LoginInput{Username: "alice", Password: "bad"})

	require.Equal(t, StateLanding, out.State)
	require.Equal(t, "Invalid username or password.", out.Err)
	require.True(t, c.Session().IsEmpty())
	require.Equal(t, StateLanding, c.State())
}

func TestLogin_TokenlessResponseIsAFailure(t *testing.T) {
	// A 2xx payload without a token cannot authenticate: no session may
	// hold a user without a token.
	gw := &fakeGateway{loginResult: &api.LoginResult{Username: "alice", Provider: "LOCAL"}}
	c := newTestController(gw)

	out := c.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})

	require.Equal(t, StateLanding, out.State)
	require.Equal(t, "Invalid username or password.", out.Err)
	require.True(t, c.Session().IsEmpty())
	require.Nil(t, c.Session().User)
}

func TestLogin_DefaultsMissingProfileFields(t *testing.T) {
	gw := &fakeGateway{loginResult: &api.LoginResult{Token: "tok"}}
	c := newTestController(gw)

	c.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})

	user := c.Session().User
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "", user.Email)
	require.Equal(t, "LOCAL", user.Provider)
}

func TestLogout_ClearsSessionWhetherCallSucceedsOrFails(t *testing.T) {
	for name, logoutErr := range map[string]error{
		"success":           nil,
		"api failure":       &api.APIError{Status: 500},
		"transport failure": api.ErrNetwork,
	} {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{logoutErr: logoutErr}
			c := loggedInController(t, gw)

			out := c.Logout(context.Background())

			require.Equal(t, StateLanding, out.State)
			require.Empty(t, out.Err, "logout failures are never surfaced")
			require.True(t, c.Session().IsEmpty())
			require.Equal(t, StateLanding, c.State())
		})
	}
}

// =============================================================================
// PASSWORD RECOVERY
// =============================================================================

func TestForgotPassword_SuccessSchedulesRedirect(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)
	c.Goto(StateForgotPassword)

	out := c.ForgotPassword(context.Background(), ForgotInput{Email: "a@x.com"})

	require.Equal(t, StateForgotPassword, out.State, "notice shows before the redirect")
	require.NotEmpty(t, out.Notice)
	require.NotNil(t, out.Redirect)
	require.Equal(t, StateResettingPassword, out.Redirect.To)
	require.Equal(t, RedirectDelay, out.Redirect.After)
	require.Equal(t, "a@x.com", out.Redirect.PrefillEmail)

	// The redirect completes the transition.
	c.CompleteRedirect(*out.Redirect)
	require.Equal(t, StateResettingPassword, c.State())
}

func TestGoto_ResetWithoutRecoveryRequestFails(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	out := c.Goto(StateResettingPassword)

	require.Equal(t, StateLanding, out.State)
	require.NotEmpty(t, out.Err)
	require.Empty(t, gw.callNames())
}

func TestResetPassword_SuccessReturnsToLogin(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)
	c.ForgotPassword(context.Background(), ForgotInput{Email: "a@x.com"})
	c.CompleteRedirect(Redirect{To: StateResettingPassword})

	out := c.ResetPassword(context.Background(), ResetInput{
		Email: "a@x.com", OTP: "123456", NewPassword: "newpw",
	})

	require.NotEmpty(t, out.Notice)
	require.NotNil(t, out.Redirect)
	require.Equal(t, StateLoggingIn, out.Redirect.To)
	require.Empty(t, c.ResetEmail(), "recovery record is consumed")
}

func TestResetPassword_FailureStays(t *testing.T) {
	gw := &fakeGateway{resetErr: &api.APIError{Status: 400, Message: "code expired"}}
	c := newTestController(gw)
	c.ForgotPassword(context.Background(), ForgotInput{Email: "a@x.com"})
	c.CompleteRedirect(Redirect{To: StateResettingPassword})

	out := c.ResetPassword(context.Background(), ResetInput{
		Email: "a@x.com", OTP: "000000", NewPassword: "newpw",
	})

	require.Equal(t, StateResettingPassword, out.State)
	require.Equal(t, "code expired", out.Err)
	require.Nil(t, out.Redirect)
}

// =============================================================================
// PASSWORD CHANGE
// =============================================================================

func TestChangePassword_VerifyFailureSkipsChange(t *testing.T) {
	gw := &fakeGateway{verifyPassErr: &api.APIError{Status: 400}}
	c := loggedInController(t, gw)
	c.Goto(StateChangingPassword)

	out := c.ChangePassword(context.Background(), ChangeInput{Current: "wrong", New: "new"})

	require.Equal(t, "Current password is incorrect.", out.Err)
	require.Equal(t, StateChangingPassword, out.State)
	require.NotContains(t, gw.callNames(), "changePassword")
}

func TestChangePassword_VerifyTransportFailureShowsNetworkMessage(t *testing.T) {
	// Only a genuine verify rejection reads "incorrect"; losing the
	// connection mid-verify is reported as a network failure.
	gw := &fakeGateway{verifyPassErr: api.ErrNetwork}
	c := loggedInController(t, gw)
	c.Goto(StateChangingPassword)

	out := c.ChangePassword(context.Background(), ChangeInput{Current: "old", New: "new"})

	require.Equal(t, "Network error. Please check your connection.", out.Err)
	require.Equal(t, StateChangingPassword, out.State)
	require.False(t, c.Session().IsEmpty(), "a transport failure is not a rejection")
	require.NotContains(t, gw.callNames(), "changePassword")
}

func TestChangePassword_SuccessRedirectsToDashboard(t *testing.T) {
	gw := &fakeGateway{}
	c := loggedInController(t, gw)
	c.Goto(StateChangingPassword)

	out := c.ChangePassword(context.Background(), ChangeInput{Current: "old", New: "new"})

	require.NotEmpty(t, out.Notice)
	require.True(t, out.ClearForm)
	require.NotNil(t, out.Redirect)
	require.Equal(t, StateAuthenticated, out.Redirect.To)

	// Verify ran before change, sequentially.
	names := gw.callNames()
	require.Equal(t, []string{"login", "verifyPassword", "changePassword"}, names)
}

func TestChangePassword_ChangeFailureShowsServerMessage(t *testing.T) {
	gw := &fakeGateway{changeErr: &api.APIError{Status: 400, Message: "password too weak"}}
	c := loggedInController(t, gw)
	c.Goto(StateChangingPassword)

	out := c.ChangePassword(context.Background(), ChangeInput{Current: "old", New: "x"})

	require.Equal(t, "password too weak", out.Err)
	require.Equal(t, StateChangingPassword, out.State)
}

func TestChangePassword_ExpiredTokenDestroysSession(t *testing.T) {
	gw := &fakeGateway{verifyPassErr: &api.APIError{Status: http.StatusUnauthorized}}
	store := session.OpenInMemory()
	gw.loginResult = &api.LoginResult{Token: "tok", Username: "alice", Provider: "LOCAL"}
	c := New(gw, store)
	c.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})
	c.Goto(StateChangingPassword)

	out := c.ChangePassword(context.Background(), ChangeInput{Current: "old", New: "new"})

	require.Equal(t, StateLanding, out.State)
	require.True(t, c.Session().IsEmpty())
	require.True(t, store.Load().IsEmpty())
	require.NotContains(t, gw.callNames(), "changePassword")
}

// =============================================================================
// NAVIGATION AND INVARIANTS
// =============================================================================

func TestGoto_OTPStepWithoutPendingFails(t *testing.T) {
	c := newTestController(&fakeGateway{})

	out := c.Goto(StateAwaitingOTP)

	require.Equal(t, StateLanding, out.State)
	require.NotEmpty(t, out.Err)
}

func TestGoto_PreLoginSurfacesAreFreelyNavigable(t *testing.T) {
	c := newTestController(&fakeGateway{})

	for _, to := range []State{
		StateRegistering, StateLoggingIn, StateForgotPassword, StateLanding,
	} {
		out := c.Goto(to)
		require.Equal(t, to, out.State)
		require.Empty(t, out.Err)
	}
}

func TestExactlyOneStateAfterEveryAction(t *testing.T) {
	gw := &fakeGateway{loginResult: &api.LoginResult{
		Token: "abc123", Username: "alice", Email: "a@x.com", Provider: "LOCAL",
	}}
	c := newTestController(gw)
	ctx := context.Background()

	steps := []func() Outcome{
		func() Outcome { return c.Goto(StateRegistering) },
		func() Outcome {
			return c.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
		},
		func() Outcome { return c.ResendOTP(ctx) },
		func() Outcome { return c.VerifyOTP(ctx, OTPInput{Code: "123456"}) },
		func() Outcome { return c.Login(ctx, LoginInput{Username: "alice", Password: "pw"}) },
		func() Outcome { return c.Goto(StateChangingPassword) },
		func() Outcome { return c.ChangePassword(ctx, ChangeInput{Current: "pw", New: "pw2"}) },
		func() Outcome { return c.Logout(ctx) },
	}

	valid := map[State]bool{
		StateLanding: true, StateRegistering: true, StateAwaitingOTP: true,
		StateLoggingIn: true, StateAuthenticated: true, StateForgotPassword: true,
		StateResettingPassword: true, StateChangingPassword: true,
	}

	for i, step := range steps {
		step()
		require.True(t, valid[c.State()], "step %d left an invalid state %v", i, c.State())
	}
	require.Equal(t, StateLanding, c.State())
}

func TestState_ShowsNavbar(t *testing.T) {
	require.True(t, StateAuthenticated.ShowsNavbar())
	require.True(t, StateChangingPassword.ShowsNavbar())
	require.False(t, StateLanding.ShowsNavbar())
	require.False(t, StateAwaitingOTP.ShowsNavbar())
}

func TestErrorsNeverPropagate(t *testing.T) {
	// Every failure kind is recovered into an Outcome; none escape as
	// panics or unhandled errors.
	gw := &fakeGateway{
		registerErr: errors.New("boom"),
		loginErr:    api.ErrNetwork,
	}
	c := newTestController(gw)
	ctx := context.Background()

	out := c.Register(ctx, RegisterInput{Username: "a", Email: "e@x.com", Password: "p"})
	require.Equal(t, "Registration failed. Please try again.", out.Err)

	out = c.Login(ctx, LoginInput{Username: "a", Password: "p"})
	require.Equal(t, "Network error. Please check your connection.", out.Err)
}
