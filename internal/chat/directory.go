package chat

import (
	"context"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// watchRooms opens the directory subscription. It stays attached for the
// lifetime of the session and is the single source of truth for the
// sidebar; there is no polling path.
func (s *Session) watchRooms() {
	sub := s.store.Subscribe("chatrooms")
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Detach()
		return
	}
	s.dirSub = sub
	s.mu.Unlock()
	go s.consumeRooms(sub)
}

func (s *Session) consumeRooms(sub *graph.Subscription) {
	for ev := range sub.Events() {
		s.handleRoomEvent(ev.Key, ev.Record)
	}
}

// handleRoomEvent maintains the approved-rooms view. A record that is
// nullified or whose status leaves the approved set is removed; when the
// removed room was active, the session clears and falls back to the
// bootstrap room.
func (s *Session) handleRoomEvent(key string, rec graph.Record) {
	room, err := domain.ChatroomFromRecord(key, rec)
	approved := err == nil && room.Status == domain.StatusApproved

	s.mu.Lock()
	_, rendered := s.rooms[key]
	if approved {
		s.rooms[key] = room
		wasNew := !rendered
		s.mu.Unlock()
		if wasNew {
			s.emit(RoomUpserted{Room: room})
		}
		return
	}
	if !rendered {
		s.mu.Unlock()
		return
	}
	delete(s.rooms, key)
	wasActive := s.activeID == key
	s.mu.Unlock()

	s.emit(RoomRemoved{ID: key, WasActive: wasActive})
	if wasActive {
		s.LeaveChatroom()
		// Best-effort fallback; errors surface through the UI state, not
		// here.
		go func() {
			_ = s.EnsureDefaultChatroomActive(context.Background())
		}()
	}
}

// Rooms returns the current approved-rooms snapshot for tests and for UI
// rebuilds after a resize.
func (s *Session) Rooms() []domain.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Chatroom, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}
