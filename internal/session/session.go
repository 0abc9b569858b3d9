// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides persistence for the authenticated session.
package session

// =============================================================================
// SESSION TYPES
// =============================================================================

// UserProfile is the profile snapshot captured at login time. It is not
// refreshed until the next login.
type UserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Provider string `json:"provider"` // "LOCAL" or an external identity provider
}

// Session holds the opaque bearer token and the cached user profile.
// A session is empty when Token is "". User is populated only when Token
// is present.
type Session struct {
	Token string
	User  *UserProfile
}

// IsEmpty reports whether no user is authenticated.
func (s Session) IsEmpty() bool {
	return s.Token == ""
}
