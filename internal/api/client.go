// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the authentication service.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 1 << 20 // 1MB limit

	// userAgent identifies the client to the service.
	userAgent = "authgate/0.1.0"
)

// Endpoint paths on the authentication service.
const (
	pathRegister       = "/api/auth/register"
	pathVerifyOTP      = "/api/auth/verify/otp"
	pathRequestOTP     = "/api/auth/otp"
	pathLogin          = "/api/auth/login"
	pathLogout         = "/api/auth/logout"
	pathForgotPassword = "/api/auth/password/forgot"
	pathResetPassword  = "/api/auth/password/reset"
	pathVerifyPassword = "/api/user/password/verify"
	pathChangePassword = "/api/user/password/change"
)

// PurposeEmailVerification is the OTP purpose for verifying a new account's
// email address.
const PurposeEmailVerification = "EMAIL_VERIFICATION"

// =============================================================================
// ERRORS
// =============================================================================

// ErrNetwork indicates that no response was obtained: connectivity loss and
// a transport-level timeout are deliberately indistinguishable.
var ErrNetwork = errors.New("network error")

// APIError represents a non-success response from the service.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Message is the message extracted from the response payload, or ""
	// when the payload carried none. Callers supply their own fallback.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// IsUnauthorized reports whether err is an APIError with status 401,
// signalling an invalid or expired bearer token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrorMessage returns the server-supplied message from err, or fallback
// when err carries none (network failures, empty payloads).
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return "Network error. Please check your connection."
	}
	return fallback
}

// errorEnvelope is the JSON body the service sends on failure.
type errorEnvelope struct {
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues requests to the authentication service.
//
// Every call is attempted exactly once; there is no retry loop. Retrying is
// the operator's decision, expressed by resubmitting the form.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// registerRequest matches the service's registration contract. The service
// spells the field "userName".
type registerRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. A successful registration leaves the
// account unverified until the emailed OTP is confirmed.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := registerRequest{UserName: username, Email: email, Password: password}
	_, err := c.postJSON(ctx, pathRegister, body, "")
	return err
}

// verifyOTPRequest is the OTP confirmation payload.
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// verifyOTPResponse carries the verified email back.
type verifyOTPResponse struct {
	Email string `json:"email"`
}

// VerifyOTP confirms the emailed code, returning the verified email address.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	payload, err := c.postJSON(ctx, pathVerifyOTP, verifyOTPRequest{Email: email, OTP: otp}, "")
	if err != nil {
		return "", err
	}
	var resp verifyOTPResponse
	if len(payload) > 0 {
		// The verified email is informational; a missing body is not an error.
		_ = json.Unmarshal(payload, &resp)
	}
	return resp.Email, nil
}

// requestOTPRequest asks the service to (re)send a code.
type requestOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// RequestOTP asks the service to email a fresh one-time code.
func (c *Client) RequestOTP(ctx context.Context, email, purpose string) error {
	_, err := c.postJSON(ctx, pathRequestOTP, requestOTPRequest{Email: email, Purpose: purpose}, "")
	return err
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// Login authenticates with username and password. The login endpoint is the
// one endpoint that takes form-urlencoded input rather than JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	payload, err := c.postForm(ctx, pathLogin, form)
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("failed to parse login response: %w", err)
		}
	}
	return &result, nil
}

// Logout invalidates the server-side session for token. Callers treat this
// as best-effort: local state is cleared whether or not the call succeeds.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.postJSON(ctx, pathLogout, nil, token)
	return err
}

// =============================================================================
// PASSWORD ENDPOINTS
// =============================================================================

// forgotPasswordRequest starts the recovery flow.
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword asks the service to email a password reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.postJSON(ctx, pathForgotPassword, forgotPasswordRequest{Email: email}, "")
	return err
}

// resetPasswordRequest completes the recovery flow.
type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword sets a new password using the emailed reset code.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := resetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}
	_, err := c.postJSON(ctx, pathResetPassword, body, "")
	return err
}

// verifyPasswordRequest checks the current password before a change.
type verifyPasswordRequest struct {
	Password string `json:"password"`
}

// VerifyPassword checks that password matches the authenticated account's
// current password.
func (c *Client) VerifyPassword(ctx context.Context, token, password string) error {
	_, err := c.postJSON(ctx, pathVerifyPassword, verifyPasswordRequest{Password: password}, token)
	return err
}

// changePasswordRequest replaces the account password.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the authenticated account's password.
func (c *Client) ChangePassword(ctx context.Context, token, current, newPassword string) error {
	body := changePasswordRequest{CurrentPassword: current, NewPassword: newPassword}
	_, err := c.postJSON(ctx, pathChangePassword, body, token)
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// postJSON sends a JSON-encoded POST and returns the response payload.
// A nil body sends an empty request. token, when non-empty, is attached as
// a bearer credential.
func (c *Client) postJSON(ctx context.Context, path string, body any, token string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token)
}

// postForm sends a form-urlencoded POST and returns the response payload.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, "")
}

// do executes a single request. No retries: transport failures surface as
// ErrNetwork, non-2xx statuses as *APIError.
func (c *Client) do(req *http.Request, token string) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Never log headers or bodies: they carry credentials and OTP codes.
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// Drop the credential from the request once sent.
	req.Header.Del("Authorization")

	if err != nil {
		log.Printf("API Transport failure: %s %s (%v)", req.Method, req.URL.Path, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	log.Printf("API Response: %d %s (%v)", resp.StatusCode, req.URL.Path, time.Since(start))

	payload, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(payload),
		}
	}
	return payload, nil
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	payload, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if int64(len(payload)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return payload, nil
}

// extractMessage pulls the optional message field out of an error payload.
func extractMessage(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return env.Message
}
