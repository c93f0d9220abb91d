package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/graph"
)

type authField int

const (
	fieldAlias authField = iota
	fieldPassphrase
	fieldDisplayName
	numAuthFields
)

// authDoneMsg carries the result of a login or signup attempt.
type authDoneMsg struct {
	identity *graph.Identity
	err      error
}

// authModel is the entry gate: a login form that flips to a signup form on
// ctrl+t, mirroring the original's two-tab auth panel.
type authModel struct {
	store   graph.Store
	dataDir string

	signup     bool
	fields     [numAuthFields]string
	focus      authField
	errMsg     string
	submitting bool
	width      int
	height     int

	// recalled is a session restored from disk; App skips this view
	// entirely when it is set.
	recalled *graph.Identity
}

func newAuthModel(store graph.Store, dataDir string) authModel {
	return authModel{store: store, dataDir: dataDir}
}

func (m *authModel) setError(err error) {
	m.submitting = false
	if err != nil {
		m.errMsg = err.Error()
	}
}

// fieldCount is 2 for login, 3 for signup (displayname).
func (m authModel) fieldCount() authField {
	if m.signup {
		return numAuthFields
	}
	return fieldDisplayName
}

func (m authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+t":
			m.signup = !m.signup
			m.focus = fieldAlias
			m.errMsg = ""
			return m, nil
		case "tab", "down":
			m.focus = (m.focus + 1) % m.fieldCount()
			return m, nil
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + m.fieldCount()) % m.fieldCount()
			return m, nil
		case "enter":
			if m.focus < m.fieldCount()-1 {
				m.focus++
				return m, nil
			}
			return m.submit()
		default:
			m.errMsg = ""
			m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
			return m, nil
		}
	}
	return m, nil
}

func (m authModel) submit() (authModel, tea.Cmd) {
	alias := strings.TrimSpace(m.fields[fieldAlias])
	passphrase := m.fields[fieldPassphrase]
	displayname := m.fields[fieldDisplayName]
	if alias == "" {
		m.errMsg = "alias cannot be empty"
		return m, nil
	}
	m.submitting = true
	m.errMsg = ""

	store, dataDir, signup := m.store, m.dataDir, m.signup
	return m, func() tea.Msg {
		var id *graph.Identity
		var err error
		if signup {
			id, err = chat.Signup(context.Background(), store, alias, passphrase, displayname)
		} else {
			id, err = chat.Login(context.Background(), store, alias, passphrase)
		}
		if err != nil {
			return authDoneMsg{err: err}
		}
		if err := graph.SaveSession(dataDir, id); err != nil {
			return authDoneMsg{err: err}
		}
		return authDoneMsg{identity: id}
	}
}

func (m authModel) View() string {
	var b strings.Builder

	title := "Log in"
	hint := "no account? ctrl+t to sign up"
	if m.signup {
		title = "Sign up"
		hint = "have an account? ctrl+t to log in"
	}
	fmt.Fprintf(&b, "\n  %s  %s\n\n", selectedStyle.Render(title), metaStyle.Render(hint))

	labels := [numAuthFields]string{"alias", "passphrase", "display name"}
	for i := authField(0); i < m.fieldCount(); i++ {
		value := m.fields[i]
		if i == fieldPassphrase {
			value = strings.Repeat("*", len([]rune(value)))
		}
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
			value += "█"
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", cursor, style.Render(fmt.Sprintf("%-12s", labels[i])), normalStyle.Render(value))
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString("  " + dimStyle.Render("authenticating..."))
	} else if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.errMsg))
	}

	return b.String()
}
