package domain

import (
	"fmt"
	"time"
)

// Status is the moderation status of a chatroom.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// GeneralRoomName is the bootstrap chatroom created in approved status
// when no chatroom exists yet. It is the only room that skips moderation.
const GeneralRoomName = "general"

// Chatroom is a named, moderated channel. It lives in the graph at
// chatrooms/<id>; its messages nest under chatrooms/<id>/messages.
type Chatroom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Creator     string    `json:"creator"` // public key
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ApprovedBy  string    `json:"approved_by,omitempty"`
	ApprovedAt  time.Time `json:"approved_at,omitempty"`
	RejectedBy  string    `json:"rejected_by,omitempty"`
	RejectedAt  time.Time `json:"rejected_at,omitempty"`
}

// ChatroomFromRecord decodes a raw graph record into a Chatroom.
// Records without a name or with an unknown status are rejected rather
// than propagated as half-formed rooms.
func ChatroomFromRecord(id string, rec map[string]any) (Chatroom, error) {
	if rec == nil {
		return Chatroom{}, fmt.Errorf("chatroom %s: nil record", id)
	}
	name, _ := rec["name"].(string)
	if name == "" {
		return Chatroom{}, fmt.Errorf("chatroom %s: missing name", id)
	}
	status, _ := rec["status"].(string)
	if !Status(status).Valid() {
		return Chatroom{}, fmt.Errorf("chatroom %s: unknown status %q", id, status)
	}
	room := Chatroom{
		ID:         id,
		Name:       name,
		Status:     Status(status),
		CreatedAt:  timeField(rec, "createdAt"),
		ApprovedAt: timeField(rec, "approvedAt"),
		RejectedAt: timeField(rec, "rejectedAt"),
	}
	room.Description, _ = rec["description"].(string)
	room.Creator, _ = rec["creator"].(string)
	room.ApprovedBy, _ = rec["approvedBy"].(string)
	room.RejectedBy, _ = rec["rejectedBy"].(string)
	return room, nil
}

// Record encodes the chatroom as raw graph fields. Zero-valued stamps are
// omitted so a later status transition merges cleanly.
func (c Chatroom) Record() map[string]any {
	rec := map[string]any{
		"name":      c.Name,
		"creator":   c.Creator,
		"status":    string(c.Status),
		"createdAt": c.CreatedAt.UnixMilli(),
	}
	if c.Description != "" {
		rec["description"] = c.Description
	}
	if c.ApprovedBy != "" {
		rec["approvedBy"] = c.ApprovedBy
		rec["approvedAt"] = c.ApprovedAt.UnixMilli()
	}
	if c.RejectedBy != "" {
		rec["rejectedBy"] = c.RejectedBy
		rec["rejectedAt"] = c.RejectedAt.UnixMilli()
	}
	return rec
}

// timeField reads a unix-millisecond timestamp that may arrive as int64
// (local write) or float64 (JSON round-trip through a relay).
func timeField(rec map[string]any, key string) time.Time {
	switch v := rec[key].(type) {
	case int64:
		return time.UnixMilli(v)
	case float64:
		return time.UnixMilli(int64(v))
	case int:
		return time.UnixMilli(int64(v))
	}
	return time.Time{}
}
