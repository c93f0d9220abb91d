package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

type view int

const (
	viewAuth view = iota
	viewRoom
	viewCreate
	viewPending
	viewUsers
)

// sessionStartedMsg carries the result of session startup: profile fetch,
// directory subscription and default-chatroom bootstrap.
type sessionStartedMsg struct {
	session *chat.Session
	err     error
}

// logoutMsg is emitted by the room view on ctrl+l.
type logoutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	store   graph.Store
	dataDir string

	session *chat.Session
	view    view
	auth    authModel
	room    roomModel
	create  createModel
	pending pendingModel
	users   usersModel

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI. A non-nil recalled identity skips the auth view,
// like the browser original restoring credentials from session storage.
func NewApp(store graph.Store, dataDir string, recalled *graph.Identity) App {
	a := App{
		store:   store,
		dataDir: dataDir,
		auth:    newAuthModel(store, dataDir),
		room:    newRoomModel(),
		create:  newCreateModel(),
		pending: newPendingModel(),
		users:   newUsersModel(),
	}
	if recalled != nil {
		a.view = viewRoom
		a.room.connecting = true
		a.auth.recalled = recalled
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd()}
	if a.auth.recalled != nil {
		cmds = append(cmds, startSession(a.store, a.auth.recalled))
	}
	return tea.Batch(cmds...)
}

// startSession builds the chat session for an authenticated identity and
// selects the bootstrap chatroom.
func startSession(store graph.Store, id *graph.Identity) tea.Cmd {
	return func() tea.Msg {
		s := chat.NewSession(store)
		if err := s.Start(context.Background(), id); err != nil {
			s.Close()
			return sessionStartedMsg{err: err}
		}
		if err := s.EnsureDefaultChatroomActive(context.Background()); err != nil {
			s.Close()
			return sessionStartedMsg{err: err}
		}
		return sessionStartedMsg{session: s}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + help(1) = 3 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3}
		a.auth, _ = a.auth.Update(bodyMsg)
		a.room, _ = a.room.Update(bodyMsg)
		a.pending, _ = a.pending.Update(bodyMsg)
		a.users, _ = a.users.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.room.animFrame++
		return a, shimmerTickCmd()

	case authDoneMsg:
		if msg.err != nil {
			a.auth.setError(msg.err)
			return a, nil
		}
		a.view = viewRoom
		a.room.connecting = true
		return a, startSession(a.store, msg.identity)

	case sessionStartedMsg:
		if msg.err != nil {
			a.view = viewAuth
			a.auth.setError(msg.err)
			return a, nil
		}
		a.session = msg.session
		a.room.connecting = false
		a.room.session = msg.session
		a.room.myName = msg.session.Profile().DisplayName
		a.create.session = msg.session
		a.pending.session = msg.session
		a.users.session = msg.session
		return a, waitEvent(msg.session.Events())

	case chatEventMsg:
		a.room = a.room.applyEvent(msg.ev)
		if a.session == nil {
			return a, nil
		}
		return a, waitEvent(a.session.Events())

	case logoutMsg:
		return a.logout()

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	return a.routeUpdate(msg)
}

// routeUpdate forwards messages to the focused sub-model.
func (a App) routeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.view {
	case viewAuth:
		a.auth, cmd = a.auth.Update(msg)
	case viewRoom:
		a.room, cmd = a.room.Update(msg)
	case viewCreate:
		a.create, cmd = a.create.Update(msg)
	case viewPending:
		a.pending, cmd = a.pending.Update(msg)
	case viewUsers:
		a.users, cmd = a.users.Update(msg)
	}
	return a, cmd
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if a.session != nil {
			a.session.Close()
		}
		return a, tea.Quit

	case "ctrl+n":
		if a.view == viewRoom && a.session != nil {
			a.create = newCreateModel()
			a.create.session = a.session
			a.view = viewCreate
			return a, nil
		}

	case "ctrl+p":
		// Moderation panel visibility follows the cached role, like the
		// original's admin section.
		if a.view == viewRoom && a.session != nil && a.session.Profile().Role.CanModerate() {
			a.pending = newPendingModel()
			a.pending.session = a.session
			a.pending.width, a.pending.height = a.width, a.height-3
			a.view = viewPending
			return a, a.pending.load()
		}

	case "ctrl+u":
		if a.view == viewRoom && a.session != nil && a.session.Profile().Role == domain.RoleAdmin {
			a.users = newUsersModel()
			a.users.session = a.session
			a.users.width, a.users.height = a.width, a.height-3
			a.view = viewUsers
			return a, a.users.load()
		}

	case "esc":
		if a.view == viewCreate || a.view == viewPending || a.view == viewUsers {
			a.view = viewRoom
			return a, nil
		}
	}

	return a.routeUpdate(msg)
}

func (a App) logout() (tea.Model, tea.Cmd) {
	if a.session != nil {
		a.session.LeaveChatroom()
		a.session.Close()
		a.session = nil
	}
	_ = graph.EndSession(a.dataDir) //nolint:errcheck // best-effort cleanup
	a.view = viewAuth
	a.auth = newAuthModel(a.store, a.dataDir)
	a.room = newRoomModel()
	bodyMsg := tea.WindowSizeMsg{Width: a.width, Height: a.height - 3}
	a.auth, _ = a.auth.Update(bodyMsg)
	a.room, _ = a.room.Update(bodyMsg)
	return a, nil
}

func (a App) View() string {
	var b strings.Builder

	greeting := ""
	if a.session != nil {
		p := a.session.Profile()
		greeting = dimStyle.Render("Welcome, "+p.DisplayName+"!") + " " + RoleBadge(p.Role)
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, renderShimmerLogo(a.frame), "   ", greeting)
	b.WriteString(" " + header + "\n\n")

	var body string
	switch a.view {
	case viewAuth:
		body = a.auth.View()
	case viewRoom:
		body = a.room.View()
	case viewCreate:
		body = a.create.View()
	case viewPending:
		body = a.pending.View()
	case viewUsers:
		body = a.users.View()
	}
	b.WriteString(strings.TrimRight(truncateToHeight(body, a.height-3), "\n"))

	b.WriteString("\n" + a.helpBar())
	return b.String()
}

func (a App) helpBar() string {
	if a.view == viewAuth {
		return renderHelp([][2]string{
			{"tab", "next field"}, {"ctrl+t", "login/signup"}, {"enter", "submit"}, {"ctrl+c", "quit"},
		})
	}
	if a.view == viewCreate {
		return renderHelp([][2]string{{"tab", "next field"}, {"enter", "submit"}, {"esc", "back"}})
	}
	if a.view == viewPending {
		return renderHelp([][2]string{{"j/k", "nav"}, {"a", "approve"}, {"r", "reject"}, {"esc", "back"}})
	}
	if a.view == viewUsers {
		return renderHelp([][2]string{{"j/k", "nav"}, {"enter", "cycle role"}, {"esc", "back"}})
	}
	keys := [][2]string{{"enter", "send"}, {"ctrl+j/k", "rooms"}, {"ctrl+n", "new room"}, {"ctrl+o", "open link"}}
	if a.session != nil {
		role := a.session.Profile().Role
		if role.CanModerate() {
			keys = append(keys, [2]string{"ctrl+p", "pending"})
		}
		if role == domain.RoleAdmin {
			keys = append(keys, [2]string{"ctrl+u", "users"})
		}
	}
	keys = append(keys, [2]string{"ctrl+l", "logout"}, [2]string{"ctrl+c", "quit"})
	return renderHelp(keys)
}

func renderHelp(keys [][2]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k[0])+" "+helpLabelStyle.Render(k[1]))
	}
	return " " + strings.Join(parts, "  ")
}
