package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/domain"
)

// pendingLoadedMsg carries the moderation queue.
type pendingLoadedMsg struct {
	rooms []domain.Chatroom
	err   error
}

// moderatedMsg carries the result of an approve or reject.
type moderatedMsg struct {
	err error
}

// pendingModel is the moderation panel: chatrooms awaiting review, oldest
// first, with approve/reject actions.
type pendingModel struct {
	session *chat.Session
	rooms   []domain.Chatroom
	cursor  int
	errMsg  string
	loaded  bool
	width   int
	height  int
}

func newPendingModel() pendingModel {
	return pendingModel{}
}

func (m pendingModel) load() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		rooms, err := s.ListPending(context.Background())
		return pendingLoadedMsg{rooms: rooms, err: err}
	}
}

func (m pendingModel) Update(msg tea.Msg) (pendingModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pendingLoadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.rooms = msg.rooms
		if m.cursor >= len(m.rooms) {
			m.cursor = len(m.rooms) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case moderatedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		return m, m.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.rooms)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "a":
			return m, m.moderate(true)
		case "r":
			return m, m.moderate(false)
		}
	}
	return m, nil
}

func (m pendingModel) moderate(approve bool) tea.Cmd {
	if m.session == nil || m.cursor >= len(m.rooms) {
		return nil
	}
	s := m.session
	roomID := m.rooms[m.cursor].ID
	return func() tea.Msg {
		var err error
		if approve {
			err = s.ApproveChatroom(context.Background(), roomID)
		} else {
			err = s.RejectChatroom(context.Background(), roomID)
		}
		return moderatedMsg{err: err}
	}
}

func (m pendingModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s\n\n", selectedStyle.Render("Pending chatrooms"))

	switch {
	case !m.loaded:
		b.WriteString("  " + dimStyle.Render("loading..."))
	case len(m.rooms) == 0:
		b.WriteString("  " + dimStyle.Render("nothing awaiting review"))
	default:
		for i, room := range m.rooms {
			cursor := "  "
			nameStyle := normalStyle
			if i == m.cursor {
				cursor = "> "
				nameStyle = selectedStyle
			}
			line := fmt.Sprintf("  %s%s  %s  %s",
				cursor,
				nameStyle.Render(truncStr(room.Name, 30)),
				pendingStyle.Render("pending"),
				metaStyle.Render(formatTime(room.CreatedAt)))
			if room.Description != "" {
				line += "  " + dimStyle.Render(truncStr(room.Description, 40))
			}
			b.WriteString(line + "\n")
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg))
	}

	return b.String()
}
