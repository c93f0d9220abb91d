package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCreateTypingAndFieldAdvance(t *testing.T) {
	m := newCreateModel()
	m = typeString(m, createModel.Update, "my room")
	if m.fields[fieldName] != "my room" {
		t.Errorf("name = %q", m.fields[fieldName])
	}

	// Enter on the name field advances instead of submitting.
	m, cmd := m.Update(key(tea.KeyEnter))
	if cmd != nil {
		t.Error("enter on name field should not submit")
	}
	if m.focus != fieldDescription {
		t.Errorf("focus = %d, want description", m.focus)
	}

	m = typeString(m, createModel.Update, "a place")
	if m.fields[fieldDescription] != "a place" {
		t.Errorf("description = %q", m.fields[fieldDescription])
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	m := newCreateModel()
	m, _ = m.Update(key(tea.KeyEnter)) // advance past name
	m, cmd := m.Update(key(tea.KeyEnter))
	if cmd != nil {
		t.Error("empty name should not produce a submit cmd")
	}
	if !strings.Contains(m.View(), "chatroom name cannot be empty") {
		t.Error("validation message missing")
	}
}

func TestCreateRequiresSession(t *testing.T) {
	m := newCreateModel()
	m = typeString(m, createModel.Update, "room")
	m, _ = m.Update(key(tea.KeyEnter))
	m, cmd := m.Update(key(tea.KeyEnter))
	if cmd != nil {
		t.Error("submit without session should not produce a cmd")
	}
	if !strings.Contains(m.statusMsg, "log in") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestCreateSuccessResetsForm(t *testing.T) {
	m := newCreateModel()
	m = typeString(m, createModel.Update, "my room")
	m.submitted = true

	m, _ = m.Update(roomCreatedMsg{})
	if m.fields[fieldName] != "" {
		t.Error("fields not cleared after success")
	}
	if !strings.Contains(m.View(), "submitted for moderation") {
		t.Error("confirmation missing")
	}
}

func TestCreateFailureShowsError(t *testing.T) {
	m := newCreateModel()
	m.submitted = true
	m, _ = m.Update(roomCreatedMsg{err: errFake})
	if m.submitted {
		t.Error("submitted still set after failure")
	}
	if !strings.Contains(m.View(), "it broke") {
		t.Error("error missing from view")
	}
}

func TestCreateIgnoresKeysWhileSubmitting(t *testing.T) {
	m := newCreateModel()
	m.submitted = true
	m, _ = m.Update(keyRunes("x"))
	if m.fields[fieldName] != "" {
		t.Error("typing accepted while submitting")
	}
	if !strings.Contains(m.View(), "submitting...") {
		t.Error("submitting state not shown")
	}
}
