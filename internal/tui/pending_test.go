package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/nordgaard/driftroom/pkg/domain"
)

func pendingRoom(id, name, desc string) domain.Chatroom {
	return domain.Chatroom{
		ID: id, Name: name, Description: desc,
		Status: domain.StatusPending, CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestPendingViewStates(t *testing.T) {
	m := newPendingModel()
	if !strings.Contains(m.View(), "loading...") {
		t.Error("loading state missing")
	}

	m, _ = m.Update(pendingLoadedMsg{})
	if !strings.Contains(m.View(), "nothing awaiting review") {
		t.Error("empty state missing")
	}
}

func TestPendingListRendersQueue(t *testing.T) {
	m := newPendingModel()
	m, _ = m.Update(pendingLoadedMsg{rooms: []domain.Chatroom{
		pendingRoom("r1", "first", "a description"),
		pendingRoom("r2", "second", ""),
	}})

	view := m.View()
	for _, want := range []string{"first", "second", "a description", "pending", "1h ago"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPendingCursorNavigation(t *testing.T) {
	m := newPendingModel()
	m, _ = m.Update(pendingLoadedMsg{rooms: []domain.Chatroom{
		pendingRoom("r1", "first", ""),
		pendingRoom("r2", "second", ""),
	}})

	m, _ = m.Update(keyRunes("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}
	m, _ = m.Update(keyRunes("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want clamped at 1", m.cursor)
	}
	m, _ = m.Update(keyRunes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}
}

func TestPendingCursorClampsAfterReload(t *testing.T) {
	m := newPendingModel()
	m, _ = m.Update(pendingLoadedMsg{rooms: []domain.Chatroom{
		pendingRoom("r1", "first", ""),
		pendingRoom("r2", "second", ""),
	}})
	m, _ = m.Update(keyRunes("j"))

	// The selected room was moderated away; the reload shrinks the list.
	m, _ = m.Update(pendingLoadedMsg{rooms: []domain.Chatroom{pendingRoom("r1", "first", "")}})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor)
	}
}

func TestPendingModerateWithoutRoomsNoops(t *testing.T) {
	m := newPendingModel()
	m, _ = m.Update(pendingLoadedMsg{})
	if _, cmd := m.Update(keyRunes("a")); cmd != nil {
		t.Error("approve on empty queue produced a cmd")
	}
}

func TestPendingErrorShown(t *testing.T) {
	m := newPendingModel()
	m, _ = m.Update(pendingLoadedMsg{err: errFake})
	if !strings.Contains(m.View(), "it broke") {
		t.Error("load error missing from view")
	}

	m, cmd := m.Update(moderatedMsg{err: errFake})
	if cmd != nil {
		t.Error("failed moderation should not trigger a reload")
	}
	if !strings.Contains(m.View(), "it broke") {
		t.Error("moderation error missing from view")
	}
}
