package tui

import (
	"strings"
	"testing"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/domain"
)

func userEntry(pub, name string, role domain.Role) chat.UserEntry {
	return chat.UserEntry{Pub: pub, Profile: domain.Profile{DisplayName: name, Role: role}}
}

func TestUsersViewStates(t *testing.T) {
	m := newUsersModel()
	if !strings.Contains(m.View(), "loading...") {
		t.Error("loading state missing")
	}

	m, _ = m.Update(usersLoadedMsg{})
	if !strings.Contains(m.View(), "no other users yet") {
		t.Error("empty state missing")
	}
}

func TestUsersListRendersRoles(t *testing.T) {
	m := newUsersModel()
	m, _ = m.Update(usersLoadedMsg{users: []chat.UserEntry{
		userEntry("pub-a", "Alice", domain.RoleModerator),
		userEntry("pub-b", "Bob", domain.RoleUser),
	}})

	view := m.View()
	for _, want := range []string{"Alice", "Bob", "moderator", "user", "pub-a"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestUsersCursorNavigation(t *testing.T) {
	m := newUsersModel()
	m, _ = m.Update(usersLoadedMsg{users: []chat.UserEntry{
		userEntry("pub-a", "Alice", domain.RoleUser),
		userEntry("pub-b", "Bob", domain.RoleUser),
	}})

	m, _ = m.Update(keyRunes("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}
	m, _ = m.Update(keyRunes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}
}

func TestUsersCycleWithoutUsersNoops(t *testing.T) {
	m := newUsersModel()
	m, _ = m.Update(usersLoadedMsg{})
	if cmd := m.cycleRole(); cmd != nil {
		t.Error("cycleRole on empty list produced a cmd")
	}
}

func TestUsersErrorShown(t *testing.T) {
	m := newUsersModel()
	m, _ = m.Update(usersLoadedMsg{err: errFake})
	if !strings.Contains(m.View(), "it broke") {
		t.Error("load error missing from view")
	}
}
