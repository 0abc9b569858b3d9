// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import "github.com/charmbracelet/glamour"

// helpMarkdown is the help overlay content.
const helpMarkdown = `# authgate

A terminal client for the authentication service.

## Getting started

- **Register** creates an account; a verification code is emailed to you.
- **Login** signs in with your username and password.
- **Forgot password** emails a reset code and walks you through recovery.

## Keys

| Surface | Keys |
|---|---|
| Landing / Dashboard | up/down select, enter confirm, q quit, ? help |
| Forms | tab/shift+tab move, enter submit, esc back |
| Email verification | ctrl+r resends the code |
| Dashboard | c change password, l logout |

Your session is kept across restarts until you log out.
`

// openHelp renders the help overlay on first use and shows it.
func (m *Model) openHelp() {
	if m.helpText == "" {
		rendered, err := glamour.Render(helpMarkdown, m.theme.GlamourStyle())
		if err != nil {
			// Fall back to the raw markdown if rendering fails.
			rendered = helpMarkdown
		}
		m.helpText = rendered
	}
	m.showHelp = true
}
