package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
)

type createField int

const (
	fieldName createField = iota
	fieldDescription
	numCreateFields
)

// roomCreatedMsg carries the result of a chatroom submission.
type roomCreatedMsg struct {
	err error
}

// createModel is the new-chatroom form. Submissions land in pending status
// and only appear in the sidebar once a moderator approves them.
type createModel struct {
	session   *chat.Session
	fields    [numCreateFields]string
	focus     createField
	statusMsg string
	submitted bool
	done      bool
}

func newCreateModel() createModel {
	return createModel{}
}

func (m createModel) Update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case roomCreatedMsg:
		m.submitted = false
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
		} else {
			m.statusMsg = "submitted for moderation"
			m.fields = [numCreateFields]string{}
			m.focus = fieldName
			m.done = true
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m createModel) updateKeys(msg tea.KeyMsg) (createModel, tea.Cmd) {
	if m.submitted {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numCreateFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numCreateFields) % numCreateFields
	case "enter":
		if m.focus == fieldName {
			m.focus = fieldDescription
			return m, nil
		}
		return m.submit()
	default:
		m.statusMsg = ""
		m.done = false
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m createModel) submit() (createModel, tea.Cmd) {
	name := strings.TrimSpace(m.fields[fieldName])
	if name == "" {
		m.statusMsg = "chatroom name cannot be empty"
		return m, nil
	}
	if m.session == nil {
		m.statusMsg = "please log in first"
		return m, nil
	}
	m.submitted = true
	s := m.session
	description := m.fields[fieldDescription]
	return m, func() tea.Msg {
		_, err := s.CreateChatroom(context.Background(), name, description)
		return roomCreatedMsg{err: err}
	}
}

func (m createModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s  %s\n\n",
		selectedStyle.Render("New chatroom"),
		metaStyle.Render("goes live after moderator approval"))

	labels := [numCreateFields]string{"name", "description"}
	for i := createField(0); i < numCreateFields; i++ {
		value := m.fields[i]
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
	if m.submitted {
		b.WriteString("  " + dimStyle.Render("submitting..."))
	} else if m.done {
		b.WriteString("  " + okStyle.Render(m.statusMsg))
	} else if m.statusMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.statusMsg))
	}

	return b.String()
}
