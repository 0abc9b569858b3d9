// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the authenticated session across runs.
//
// The session is the pair (bearer token, user profile snapshot), stored
// under two well-known keys in a small SQLite key/value table. The store
// is the sole source of truth for "is a user currently authenticated":
// a non-empty load at startup means the user resumes authenticated.
//
// Storage unavailability is non-fatal. If the database cannot be opened
// the store silently degrades to an in-memory map, giving an
// unauthenticated, non-persistent session for that run.
package session
