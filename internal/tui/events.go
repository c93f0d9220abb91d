package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
)

// chatEventMsg wraps one session event for the Bubbletea loop.
type chatEventMsg struct {
	ev chat.Event
}

// waitEvent blocks on the session feed and re-arms itself from App.Update,
// the Bubbletea idiom for an external push stream.
func waitEvent(ch <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		return chatEventMsg{ev: <-ch}
	}
}
