package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
)

// usersLoadedMsg carries the user management list.
type usersLoadedMsg struct {
	users []chat.UserEntry
	err   error
}

// roleSetMsg carries the result of a role change.
type roleSetMsg struct {
	err error
}

// usersModel is the admin user management panel. The caller's own account
// is excluded from the list, so self-demotion is impossible from here.
type usersModel struct {
	session *chat.Session
	users   []chat.UserEntry
	cursor  int
	errMsg  string
	loaded  bool
	width   int
	height  int
}

func newUsersModel() usersModel {
	return usersModel{}
}

func (m usersModel) load() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		users, err := s.ListUsers(context.Background())
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case usersLoadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.users = msg.users
		if m.cursor >= len(m.users) {
			m.cursor = len(m.users) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case roleSetMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		return m, m.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			return m, m.cycleRole()
		}
	}
	return m, nil
}

// cycleRole advances the selected user to the next role in the cycle
// user -> moderator -> admin -> user.
func (m usersModel) cycleRole() tea.Cmd {
	if m.session == nil || m.cursor >= len(m.users) {
		return nil
	}
	s := m.session
	entry := m.users[m.cursor]
	next := entry.Profile.Role.Next()
	return func() tea.Msg {
		return roleSetMsg{err: s.SetUserRole(context.Background(), entry.Pub, next)}
	}
}

func (m usersModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s\n\n", selectedStyle.Render("Users"))

	switch {
	case !m.loaded:
		b.WriteString("  " + dimStyle.Render("loading..."))
	case len(m.users) == 0:
		b.WriteString("  " + dimStyle.Render("no other users yet"))
	default:
		for i, u := range m.users {
			cursor := "  "
			nameStyle := normalStyle
			if i == m.cursor {
				cursor = "> "
				nameStyle = selectedStyle
			}
			fmt.Fprintf(&b, "  %s%s  %s  %s\n",
				cursor,
				nameStyle.Render(fmt.Sprintf("%-24s", truncStr(u.Profile.DisplayName, 24))),
				RoleStyle(u.Profile.Role).Render(string(u.Profile.Role)),
				metaStyle.Render(truncStr(u.Pub, 12)))
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg))
	}

	return b.String()
}
