// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the remote authentication
// service.
//
// The client is a thin request/response layer: it serializes the endpoint's
// declared body encoding (JSON everywhere except the form-urlencoded login
// endpoint), attaches the bearer credential where an endpoint requires one,
// and normalizes outcomes. Non-success statuses become *APIError with the
// payload's message field when present; transport failures, including
// timeouts, become ErrNetwork and are reported with one fixed message.
//
// Every call is attempted exactly once. Retrying is left to the operator.
package api
