// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authgate-tui/internal/ui/styles"
)

// =============================================================================
// FORM FIELD
// =============================================================================

// Field is a labelled text input.
type Field struct {
	Label string
	input textinput.Model
}

// newField creates a field. Secret fields mask their echo.
func newField(label, placeholder string, secret bool) *Field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	ti.Prompt = "> "
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return &Field{Label: label, input: ti}
}

// Value returns the trimmed field value.
func (f *Field) Value() string {
	return strings.TrimSpace(f.input.Value())
}

// =============================================================================
// FORM
// =============================================================================

// Form is an ordered set of fields with one focused at a time.
type Form struct {
	fields []*Field
	focus  int
}

// newForm creates a form with focus on the first field.
func newForm(fields ...*Field) *Form {
	f := &Form{fields: fields}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// Next moves focus to the following field, wrapping around.
func (f *Form) Next() tea.Cmd {
	return f.setFocus((f.focus + 1) % len(f.fields))
}

// Prev moves focus to the preceding field, wrapping around.
func (f *Form) Prev() tea.Cmd {
	return f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields))
}

func (f *Form) setFocus(i int) tea.Cmd {
	f.fields[f.focus].input.Blur()
	f.focus = i
	return f.fields[f.focus].input.Focus()
}

// Update routes input to the focused field.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// Value returns the trimmed value of field i.
func (f *Form) Value(i int) string {
	return f.fields[i].Value()
}

// SetValue sets the value of field i.
func (f *Form) SetValue(i int, v string) {
	f.fields[i].input.SetValue(v)
}

// Reset clears every field and refocuses the first.
func (f *Form) Reset() {
	for _, field := range f.fields {
		field.input.Reset()
	}
	f.setFocus(0)
}

// View renders the form's fields with the focused label highlighted.
func (f *Form) View(theme *styles.Theme) string {
	var b strings.Builder
	for i, field := range f.fields {
		label := theme.Label
		if i == f.focus {
			label = theme.LabelFocused
		}
		b.WriteString(label.Render(field.Label))
		b.WriteString("\n")
		b.WriteString(field.input.View())
		if i < len(f.fields)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
