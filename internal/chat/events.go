package chat

import "github.com/nordgaard/driftroom/pkg/domain"

// Event is a change notification the session pushes to the UI. The UI
// drains Session.Events and renders; it never touches the store directly.
type Event interface{ chatEvent() }

// RoomUpserted surfaces an approved chatroom for the sidebar.
type RoomUpserted struct {
	Room domain.Chatroom
}

// RoomRemoved removes a chatroom from the sidebar: the record was
// nullified or its status left the approved set.
type RoomRemoved struct {
	ID        string
	WasActive bool
}

// RoomSwitched announces the active chatroom changed; the UI clears its
// message list and updates the header.
type RoomSwitched struct {
	ID   string
	Name string
}

// MessageAdded carries one deduplicated message with its resolved sender
// name, from either the snapshot read or the live feed.
type MessageAdded struct {
	RoomID     string
	Message    domain.Message
	SenderName string
	Outgoing   bool
}

// MessageRemoved reports an upstream nullification of a rendered message.
type MessageRemoved struct {
	RoomID    string
	MessageID string
}

func (RoomUpserted) chatEvent()   {}
func (RoomRemoved) chatEvent()    {}
func (RoomSwitched) chatEvent()   {}
func (MessageAdded) chatEvent()   {}
func (MessageRemoved) chatEvent() {}
