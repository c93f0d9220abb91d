package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/pkg/graph"
)

func newTestApp(t *testing.T) App {
	t.Helper()
	g := graph.New()
	t.Cleanup(func() { g.Close() }) //nolint:errcheck
	return NewApp(g, t.TempDir(), nil)
}

func TestAppStartsAtAuthView(t *testing.T) {
	a := newTestApp(t)
	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
	if !strings.Contains(a.View(), "Log in") {
		t.Error("auth form missing")
	}
}

func TestAppRecalledIdentitySkipsAuth(t *testing.T) {
	g := graph.New()
	t.Cleanup(func() { g.Close() }) //nolint:errcheck

	a := NewApp(g, t.TempDir(), &graph.Identity{Alias: "alice"})
	if a.view != viewRoom {
		t.Errorf("view = %d, want room", a.view)
	}
	if !strings.Contains(a.View(), "connecting...") {
		t.Error("connecting state missing while the session starts")
	}
	if a.Init() == nil {
		t.Error("Init should start the recalled session")
	}
}

func TestAppAuthFailureStaysOnForm(t *testing.T) {
	a := newTestApp(t)
	model, cmd := a.Update(authDoneMsg{err: errFake})
	a = model.(App)

	if cmd != nil {
		t.Error("failed auth should not start a session")
	}
	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
	if !strings.Contains(a.View(), "it broke") {
		t.Error("auth error missing from view")
	}
}

func TestAppWindowSizeReservesChrome(t *testing.T) {
	a := newTestApp(t)
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	a = model.(App)

	if a.width != 100 || a.height != 40 {
		t.Errorf("app size = %dx%d", a.width, a.height)
	}
	// Header and help bar take 3 lines off the body.
	if a.room.height != 37 {
		t.Errorf("room height = %d, want 37", a.room.height)
	}
}

func TestAppShimmerTickAdvancesFrames(t *testing.T) {
	a := newTestApp(t)
	model, cmd := a.Update(shimmerTickMsg{})
	a = model.(App)

	if a.frame != 1 || a.room.animFrame != 1 {
		t.Errorf("frames = %d/%d, want 1/1", a.frame, a.room.animFrame)
	}
	if cmd == nil {
		t.Error("shimmer tick not re-armed")
	}
}

func TestAppChatEventFeedsRoomView(t *testing.T) {
	a := newTestApp(t)
	model, cmd := a.Update(chatEventMsg{ev: chat.RoomUpserted{Room: room("r1", "general")}})
	a = model.(App)

	if len(a.room.rooms) != 1 {
		t.Errorf("len(rooms) = %d, want 1", len(a.room.rooms))
	}
	// Without a session there is no feed to re-arm.
	if cmd != nil {
		t.Error("event loop re-armed with no session")
	}
}

func TestAppEscReturnsToRoom(t *testing.T) {
	a := newTestApp(t)
	for _, v := range []view{viewCreate, viewPending, viewUsers} {
		a.view = v
		model, _ := a.Update(key(tea.KeyEsc))
		a = model.(App)
		if a.view != viewRoom {
			t.Errorf("view = %d after esc from %d, want room", a.view, v)
		}
	}
}

func TestAppPanelsNeedSession(t *testing.T) {
	a := newTestApp(t)
	a.view = viewRoom

	// Without a session neither the create form nor the panels open.
	for _, k := range []tea.KeyType{tea.KeyCtrlN, tea.KeyCtrlP, tea.KeyCtrlU} {
		model, _ := a.Update(key(k))
		a = model.(App)
		if a.view != viewRoom {
			t.Errorf("view = %d after %v with no session, want room", a.view, k)
		}
	}
}

func TestAppHelpBarPerView(t *testing.T) {
	a := newTestApp(t)
	if !strings.Contains(a.View(), "login/signup") {
		t.Error("auth help missing toggle hint")
	}

	a.view = viewRoom
	view := a.View()
	if !strings.Contains(view, "new room") {
		t.Error("room help missing")
	}
	// Role-gated entries stay hidden for anonymous viewers.
	if strings.Contains(view, "cycle role") || strings.Contains(view, "approve") {
		t.Error("privileged help shown without a session")
	}

	a.view = viewPending
	if !strings.Contains(a.View(), "approve") {
		t.Error("moderation help missing")
	}
}
