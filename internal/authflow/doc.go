// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authflow implements the authentication flow state machine.
//
// The Controller owns the active State and the transient flow records (the
// pending email verification and the pending password reset). Given a user
// action it decides which gateway call is legal in the current step, how to
// interpret its outcome, and which state follows. All errors are recovered
// here: validation failures never reach the network, API and transport
// failures become surface messages, and nothing propagates past the action.
//
// Successful recovery and change flows pause for RedirectDelay before the
// follow-up transition so the operator can read the success notice, matching
// the service's reference web client.
package authflow
