// Package chat implements the client-side coordination roles of the
// chatroom application: session gate, profile cache, chatroom directory,
// active-chatroom lifecycle, composer, moderation and user management.
// All state lives on the Session so listener lifecycles are auditable;
// there are no package-level variables.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// State is the active-chatroom state machine.
type State int

const (
	StateNoneSelected State = iota
	StateSwitching
	StateActive
)

// bootstrapWait is how long EnsureDefaultChatroomActive waits for the
// directory to surface an approved "general" room before creating one.
// Best-effort: under a slow relay this can race and double-create.
const bootstrapWait = 2 * time.Second

const bootstrapPoll = 100 * time.Millisecond

// Session owns everything the UI needs for one authenticated run: the
// cached profile, the directory subscription, the active chatroom and its
// single message listener, and the seen-set that deduplicates deliveries.
type Session struct {
	store graph.Store

	mu         sync.Mutex
	id         *graph.Identity
	profile    domain.Profile
	state      State
	activeID   string
	activeName string
	msgSub     *graph.Subscription
	seen       map[string]struct{}
	rooms      map[string]domain.Chatroom // approved rooms surfaced to the sidebar
	dirSub     *graph.Subscription
	closed     bool

	names  *nameCache
	events chan Event
	done   chan struct{}

	// bootstrapWait is overridable in tests.
	bootstrapWait time.Duration
}

// NewSession creates a logged-out session bound to a store.
func NewSession(store graph.Store) *Session {
	return &Session{
		store:         store,
		seen:          make(map[string]struct{}),
		rooms:         make(map[string]domain.Chatroom),
		names:         newNameCache(store),
		events:        make(chan Event, 256),
		done:          make(chan struct{}),
		bootstrapWait: bootstrapWait,
	}
}

// Events is the feed the UI drains. It is never closed; the UI stops
// reading when it tears the session down.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Start authenticates the session with a recalled or freshly authenticated
// identity: fetches the profile (writing a default record if the account
// predates the profile schema), then opens the directory subscription.
func (s *Session) Start(ctx context.Context, id *graph.Identity) error {
	if id == nil {
		return fmt.Errorf("chat.Start: no identity")
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()

	profile, existed, err := s.fetchOwnProfile(ctx)
	if err != nil {
		return fmt.Errorf("chat.Start: %w", err)
	}
	if !existed {
		if err := s.store.Write(ctx, "profiles/"+id.Pub, graph.Record(profile.Record())); err != nil {
			return fmt.Errorf("chat.Start: %w", err)
		}
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	s.watchRooms()
	return nil
}

// Close tears down every listener. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	msgSub, dirSub := s.msgSub, s.dirSub
	s.msgSub, s.dirSub = nil, nil
	s.state = StateNoneSelected
	close(s.done)
	s.mu.Unlock()

	if msgSub != nil {
		msgSub.Detach()
	}
	if dirSub != nil {
		dirSub.Detach()
	}
}

// Identity returns the authenticated identity, or nil when logged out.
func (s *Session) Identity() *graph.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Profile returns the cached profile. It is fetched once per session and
// not refreshed when changed elsewhere; that staleness window is accepted.
func (s *Session) Profile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// State returns the active-chatroom state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveRoom returns the active chatroom id and name, empty when none.
func (s *Session) ActiveRoom() (id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeName
}

// SwitchChatroom moves the session to a new chatroom: detach the previous
// message listener, reset the seen-set, replay a point-in-time snapshot of
// existing messages, then attach the live listener. Invocable from any
// state; concurrent switches resolve to the latest caller.
func (s *Session) SwitchChatroom(ctx context.Context, roomID, roomName string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("chat.SwitchChatroom: session closed")
	}
	prev := s.msgSub
	s.msgSub = nil
	s.state = StateSwitching
	s.activeID = roomID
	s.activeName = roomName
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	if prev != nil {
		prev.Detach()
	}
	s.emit(RoomSwitched{ID: roomID, Name: roomName})

	collection := "chatrooms/" + roomID + "/messages"
	snapshot, err := s.store.Children(ctx, collection)
	if err != nil {
		return fmt.Errorf("chat.SwitchChatroom: %w", err)
	}
	for key, rec := range snapshot {
		s.handleMessageEvent(ctx, roomID, key, rec)
	}

	sub := s.store.Subscribe(collection)
	s.mu.Lock()
	if s.closed || s.activeID != roomID {
		// A newer switch (or teardown) won the race; this listener must
		// not survive it.
		s.mu.Unlock()
		sub.Detach()
		return nil
	}
	s.msgSub = sub
	s.state = StateActive
	s.mu.Unlock()

	go s.consumeMessages(roomID, sub)
	return nil
}

// LeaveChatroom detaches the live listener and returns to NoneSelected,
// as on logout or navigation away. Idempotent.
func (s *Session) LeaveChatroom() {
	s.mu.Lock()
	sub := s.msgSub
	s.msgSub = nil
	s.state = StateNoneSelected
	s.activeID = ""
	s.activeName = ""
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
	if sub != nil {
		sub.Detach()
	}
}

// consumeMessages pumps the live feed into the shared rendering path. It
// ends when the subscription is detached.
func (s *Session) consumeMessages(roomID string, sub *graph.Subscription) {
	for ev := range sub.Events() {
		s.handleMessageEvent(context.Background(), roomID, ev.Key, ev.Record)
	}
}

// handleMessageEvent is the single idempotent rendering path for both the
// snapshot read and the live feed, guaranteeing convergence regardless of
// arrival order or duplicate delivery.
func (s *Session) handleMessageEvent(ctx context.Context, roomID, key string, rec graph.Record) {
	s.mu.Lock()
	if s.activeID != roomID {
		s.mu.Unlock()
		return
	}
	if rec == nil {
		if _, ok := s.seen[key]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.seen, key)
		s.mu.Unlock()
		s.emit(MessageRemoved{RoomID: roomID, MessageID: key})
		return
	}
	if _, ok := s.seen[key]; ok {
		s.mu.Unlock()
		return
	}
	msg, err := domain.MessageFromRecord(key, rec)
	if err != nil {
		// Malformed or contentless records are skipped, not rendered.
		s.mu.Unlock()
		return
	}
	s.seen[key] = struct{}{}
	pub := ""
	if s.id != nil {
		pub = s.id.Pub
	}
	s.mu.Unlock()

	s.emit(MessageAdded{
		RoomID:     roomID,
		Message:    msg,
		SenderName: s.names.resolve(ctx, msg.Sender),
		Outgoing:   msg.OutgoingFor(pub),
	})
}

// EnsureDefaultChatroomActive waits briefly for an approved "general" room
// to surface, switching to it when it does; if the wait window expires it
// creates the room in approved status (the only room that skips
// moderation) and switches to it.
func (s *Session) EnsureDefaultChatroomActive(ctx context.Context) error {
	deadline := time.Now().Add(s.bootstrapWait)
	for {
		if room, ok := s.findGeneral(ctx); ok {
			return s.SwitchChatroom(ctx, room.ID, room.Name)
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-time.After(bootstrapPoll):
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return fmt.Errorf("chat.EnsureDefaultChatroomActive: session closed")
		}
	}

	id := s.Identity()
	if id == nil {
		return fmt.Errorf("chat.EnsureDefaultChatroomActive: no identity")
	}
	room := domain.Chatroom{
		Name:      domain.GeneralRoomName,
		Creator:   id.Pub,
		Status:    domain.StatusApproved,
		CreatedAt: time.Now(),
	}
	roomID, err := s.store.Append(ctx, "chatrooms", graph.Record(room.Record()))
	if err != nil {
		return fmt.Errorf("chat.EnsureDefaultChatroomActive: %w", err)
	}
	return s.SwitchChatroom(ctx, roomID, room.Name)
}

func (s *Session) findGeneral(ctx context.Context) (domain.Chatroom, bool) {
	snapshot, err := s.store.Children(ctx, "chatrooms")
	if err != nil {
		return domain.Chatroom{}, false
	}
	for key, rec := range snapshot {
		room, err := domain.ChatroomFromRecord(key, rec)
		if err != nil {
			continue
		}
		if room.Status == domain.StatusApproved && room.Name == domain.GeneralRoomName {
			return room, true
		}
	}
	return domain.Chatroom{}, false
}

// emit pushes an event to the UI feed, giving up if the session is torn
// down while the feed is full.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
