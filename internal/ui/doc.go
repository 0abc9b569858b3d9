// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the terminal user interface for authgate.
//
// The UI is purely reactive to the flow controller: the active flow state
// selects which surface renders, and every user action is forwarded to the
// controller as a command whose outcome flows back as a message. The UI
// never decides transitions itself; it only presents them.
package ui
