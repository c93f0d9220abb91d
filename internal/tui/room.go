package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nordgaard/driftroom/internal/browser"
	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/domain"
)

// sidebarWidth is the fixed column width of the chatroom list.
const sidebarWidth = 22

// maxRenderedMessages bounds the in-memory message list.
const maxRenderedMessages = 200

// sendDoneMsg carries the result of a text or image send.
type sendDoneMsg struct {
	err error
}

// switchDoneMsg carries the result of a chatroom switch.
type switchDoneMsg struct {
	err error
}

// uiMessage is a rendered message ready for display.
type uiMessage struct {
	ID         string
	SenderName string
	Text       string
	ImageURL   string
	HasImage   bool
	ImageSize  int // decoded bytes, 0 when unknown
	Outgoing   bool
	Timestamp  time.Time
}

// dataURISize estimates the decoded byte size of a base64 data URI.
func dataURISize(uri string) int {
	i := strings.Index(uri, ",")
	if i < 0 {
		return 0
	}
	return len(uri[i+1:]) * 3 / 4
}

// roomModel is the main chat view: chatroom sidebar, message log and
// composer. The message list is fed exclusively by session events; the
// model never reads the store.
type roomModel struct {
	session    *chat.Session
	connecting bool
	myName     string

	rooms      []domain.Chatroom // approved, sorted by name
	roomCursor int
	activeID   string
	activeName string

	messages []uiMessage
	input    string
	status   string
	scroll   int // lines scrolled up from bottom (0 = at bottom)

	width     int
	height    int
	animFrame int
}

func newRoomModel() roomModel {
	return roomModel{}
}

// applyEvent folds one session event into the view state.
func (m roomModel) applyEvent(ev chat.Event) roomModel {
	switch ev := ev.(type) {

	case chat.RoomUpserted:
		replaced := false
		for i := range m.rooms {
			if m.rooms[i].ID == ev.Room.ID {
				m.rooms[i] = ev.Room
				replaced = true
				break
			}
		}
		if !replaced {
			m.rooms = append(m.rooms, ev.Room)
		}
		sort.Slice(m.rooms, func(i, j int) bool {
			return m.rooms[i].Name < m.rooms[j].Name
		})
		m.clampRoomCursor()

	case chat.RoomRemoved:
		for i := range m.rooms {
			if m.rooms[i].ID == ev.ID {
				m.rooms = append(m.rooms[:i], m.rooms[i+1:]...)
				break
			}
		}
		m.clampRoomCursor()
		if ev.WasActive {
			m.status = "this chatroom was removed"
		}

	case chat.RoomSwitched:
		m.activeID = ev.ID
		m.activeName = ev.Name
		m.messages = nil
		m.scroll = 0
		m.status = ""
		for i := range m.rooms {
			if m.rooms[i].ID == ev.ID {
				m.roomCursor = i
				break
			}
		}

	case chat.MessageAdded:
		if ev.RoomID != m.activeID {
			return m
		}
		m.messages = append(m.messages, uiMessage{
			ID:         ev.Message.ID,
			SenderName: ev.SenderName,
			Text:       ev.Message.Text,
			ImageURL:   ev.Message.ImageURL,
			HasImage:   ev.Message.ImageData != "" || ev.Message.ImageURL != "",
			ImageSize:  dataURISize(ev.Message.ImageData),
			Outgoing:   ev.Outgoing,
			Timestamp:  ev.Message.Timestamp,
		})
		// The feed is unordered; keep the log chronological.
		sort.Slice(m.messages, func(i, j int) bool {
			return m.messages[i].Timestamp.Before(m.messages[j].Timestamp)
		})
		if len(m.messages) > maxRenderedMessages {
			trimmed := make([]uiMessage, maxRenderedMessages)
			copy(trimmed, m.messages[len(m.messages)-maxRenderedMessages:])
			m.messages = trimmed
		}

	case chat.MessageRemoved:
		if ev.RoomID != m.activeID {
			return m
		}
		for i := range m.messages {
			if m.messages[i].ID == ev.MessageID {
				m.messages = append(m.messages[:i], m.messages[i+1:]...)
				break
			}
		}
	}
	return m
}

func (m *roomModel) clampRoomCursor() {
	if m.roomCursor >= len(m.rooms) {
		m.roomCursor = len(m.rooms) - 1
	}
	if m.roomCursor < 0 {
		m.roomCursor = 0
	}
}

func (m roomModel) Update(msg tea.Msg) (roomModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sendDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case switchDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m roomModel) updateKeys(msg tea.KeyMsg) (roomModel, tea.Cmd) {
	switch msg.String() {

	case "ctrl+j":
		if len(m.rooms) > 0 {
			m.roomCursor = (m.roomCursor + 1) % len(m.rooms)
			return m.switchToCursor()
		}
		return m, nil

	case "ctrl+k":
		if len(m.rooms) > 0 {
			m.roomCursor = (m.roomCursor - 1 + len(m.rooms)) % len(m.rooms)
			return m.switchToCursor()
		}
		return m, nil

	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }

	case "ctrl+o":
		return m, m.openLastLink()

	case "ctrl+y":
		return m.copyLastMessage()

	case "pgup":
		m.scroll += 5
		return m, nil

	case "pgdown":
		m.scroll -= 5
		if m.scroll < 0 {
			m.scroll = 0
		}
		return m, nil

	case "enter":
		return m.submit()

	default:
		m.status = ""
		m.input = editRune(m.input, msg.String())
		return m, nil
	}
}

func (m roomModel) switchToCursor() (roomModel, tea.Cmd) {
	room := m.rooms[m.roomCursor]
	if room.ID == m.activeID || m.session == nil {
		return m, nil
	}
	s := m.session
	return m, func() tea.Msg {
		return switchDoneMsg{err: s.SwitchChatroom(context.Background(), room.ID, room.Name)}
	}
}

// submit sends the composer content: "/image <path>" attaches a file,
// anything else goes out as text. The input clears immediately, before the
// write is acknowledged.
func (m roomModel) submit() (roomModel, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	input := m.input
	m.input = ""
	m.status = ""
	s := m.session

	if path, ok := strings.CutPrefix(strings.TrimSpace(input), "/image "); ok {
		return m, sendImageCmd(s, strings.TrimSpace(path))
	}
	return m, func() tea.Msg {
		return sendDoneMsg{err: s.SendText(context.Background(), input)}
	}
}

// sendImageCmd checks the file size against the cap before reading, like
// the original checked file.size before opening the reader.
func sendImageCmd(s *chat.Session, path string) tea.Cmd {
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return sendDoneMsg{err: fmt.Errorf("cannot read image: %w", err)}
		}
		if info.Size() > chat.MaxImageBytes {
			return sendDoneMsg{err: fmt.Errorf("image too large (max %dMB)", chat.MaxImageBytes/(1024*1024))}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return sendDoneMsg{err: fmt.Errorf("cannot read image: %w", err)}
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		return sendDoneMsg{err: s.SendImage(context.Background(), mimeType, data)}
	}
}

// openLastLink opens the most recent link in the log in the browser.
func (m roomModel) openLastLink() tea.Cmd {
	for i := len(m.messages) - 1; i >= 0; i-- {
		target := m.messages[i].ImageURL
		if target == "" {
			target = chat.FirstLink(m.messages[i].Text)
		}
		if target != "" {
			url := target
			return func() tea.Msg {
				browser.Open(url) //nolint:errcheck // best-effort browser open
				return nil
			}
		}
	}
	return nil
}

// copyLastMessage copies the most recent text message to the clipboard.
func (m roomModel) copyLastMessage() (roomModel, tea.Cmd) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Text != "" {
			if err := clipboard.WriteAll(m.messages[i].Text); err == nil {
				m.status = "copied"
			}
			return m, nil
		}
	}
	return m, nil
}

func (m roomModel) View() string {
	if m.connecting {
		return "\n  " + dimStyle.Render("connecting...")
	}

	sidebar := m.renderSidebar()
	main := m.renderMain()
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// renderSidebar renders the approved chatroom list.
func (m roomModel) renderSidebar() string {
	var b strings.Builder
	b.WriteString(" " + sidebarTitleStyle.Render("Chatrooms") + "\n")
	if len(m.rooms) == 0 {
		b.WriteString(" " + metaStyle.Render("none yet") + "\n")
	}
	for i, room := range m.rooms {
		name := truncStr(room.Name, sidebarWidth-4)
		switch {
		case room.ID == m.activeID:
			b.WriteString(" " + accentStyle.Render("> "+name) + "\n")
		case i == m.roomCursor:
			b.WriteString(" " + selectedStyle.Render("  "+name) + "\n")
		default:
			b.WriteString(" " + dimStyle.Render("  "+name) + "\n")
		}
	}
	return lipgloss.NewStyle().Width(sidebarWidth).Render(b.String())
}

// renderMain renders the active room header, message viewport and composer.
func (m roomModel) renderMain() string {
	var b strings.Builder

	title := m.activeName
	if title == "" {
		title = "no chatroom selected"
	}
	b.WriteString(" " + selectedStyle.Render("#"+title) + "\n")

	chrome := 2 // header + input
	if m.status != "" {
		chrome++
	}
	viewportHeight := m.height - chrome
	if viewportHeight < 2 {
		viewportHeight = 2
	}

	if len(m.messages) == 0 {
		padLines(viewportHeight-1, &b)
		b.WriteString(" " + dimStyle.Render("no messages yet") + "\n")
	} else {
		b.WriteString(m.renderMessages(viewportHeight))
	}

	b.WriteString(m.renderInput())
	b.WriteByte('\n')

	if m.status != "" {
		b.WriteString(" " + errorStyle.Render(m.status))
	}

	return b.String()
}

// renderMessages renders the log clipped to viewportHeight lines, newest at
// the bottom, respecting the scroll offset.
func (m roomModel) renderMessages(viewportHeight int) string {
	var allLines []string
	for _, msg := range m.messages {
		allLines = append(allLines, strings.Split(m.renderMessage(msg), "\n")...)
	}

	total := len(allLines)
	maxScroll := total - viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	scroll := m.scroll
	if scroll > maxScroll {
		scroll = maxScroll
	}

	end := total - scroll
	start := end - viewportHeight
	if start < 0 {
		start = 0
	}

	visible := allLines[start:end]

	var b strings.Builder
	for i := len(visible); i < viewportHeight; i++ {
		b.WriteByte('\n')
	}
	for _, line := range visible {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderMessage renders one message, wrapping body text to fit the pane.
func (m roomModel) renderMessage(msg uiMessage) string {
	timeStr := fmt.Sprintf("%8s", formatChatTime(msg.Timestamp))
	timePart := metaStyle.Render(timeStr)
	sep := chatSepStyle.Render(" · ")

	var namePart string
	if msg.Outgoing {
		namePart = chatSelfNameStyle.Render(msg.SenderName)
	} else {
		namePart = chatNameStyle.Render(msg.SenderName)
	}

	body := msg.Text
	if msg.HasImage {
		tag := "[image]"
		if msg.ImageSize > 0 {
			tag = "[image " + formatBytes(msg.ImageSize) + "]"
		}
		body = tag
		if msg.Text != "" {
			body = msg.Text + " " + tag
		}
	}

	// Prefix: " " + time(8) + "  " + name + " · "
	prefixWidth := 1 + 8 + 2 + lipgloss.Width(namePart) + 3
	paneWidth := m.width - sidebarWidth
	bodyWidth := paneWidth - prefixWidth
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	wrapped := hardWrap(body, bodyWidth)
	lines := strings.Split(wrapped, "\n")

	render := func(s string) string { return m.renderBody(s, msg) }

	result := " " + timePart + "  " + namePart + sep + render(lines[0])
	if len(lines) > 1 {
		indent := strings.Repeat(" ", prefixWidth)
		for _, line := range lines[1:] {
			result += "\n" + indent + render(line)
		}
	}
	return result
}

// renderBody styles one body line, highlighting detected links. Segments
// are rendered as plain terminal cells so message text cannot inject
// anything.
func (m roomModel) renderBody(line string, msg uiMessage) string {
	textStyle := chatTextStyle
	if msg.Outgoing {
		textStyle = chatSelfTextStyle
	}
	if msg.HasImage {
		return textStyle.Render(line)
	}
	var out strings.Builder
	for _, seg := range chat.Linkify(line) {
		if seg.URL != "" {
			out.WriteString(linkStyle.Render(seg.Text))
		} else {
			out.WriteString(textStyle.Render(seg.Text))
		}
	}
	return out.String()
}

// renderInput renders the composer line.
func (m roomModel) renderInput() string {
	placeholder := "say something... (/image <path> to attach)"
	name := m.myName
	if name == "" {
		name = domain.AnonymousName
	}
	return renderChatInput(name, m.input, placeholder, m.animFrame)
}
