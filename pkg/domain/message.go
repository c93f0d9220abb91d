package domain

import (
	"fmt"
	"time"
)

// Message is a single chat message. Messages are immutable once written;
// the only mutation observed by the client is external nullification,
// which the store surfaces as a nil-record event.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text,omitempty"`
	ImageData string    `json:"image_data,omitempty"` // base64 data URI
	ImageURL  string    `json:"image_url,omitempty"`
	Sender    string    `json:"sender"` // public key
	Timestamp time.Time `json:"timestamp"`
}

// HasContent reports whether the message carries anything renderable.
// Events without text or image payload are skipped by the live feed.
func (m Message) HasContent() bool {
	return m.Text != "" || m.ImageData != "" || m.ImageURL != ""
}

// OutgoingFor reports whether the message was sent by the given identity.
func (m Message) OutgoingFor(pub string) bool {
	return pub != "" && m.Sender == pub
}

// MessageFromRecord decodes a raw graph record into a Message.
// Records with no renderable content are rejected.
func MessageFromRecord(id string, rec map[string]any) (Message, error) {
	if rec == nil {
		return Message{}, fmt.Errorf("message %s: nil record", id)
	}
	msg := Message{
		ID:        id,
		Timestamp: timeField(rec, "timestamp"),
	}
	msg.Text, _ = rec["text"].(string)
	msg.ImageData, _ = rec["imageData"].(string)
	msg.ImageURL, _ = rec["imageUrl"].(string)
	msg.Sender, _ = rec["sender"].(string)
	if !msg.HasContent() {
		return Message{}, fmt.Errorf("message %s: no content", id)
	}
	return msg, nil
}

// Record encodes the message as raw graph fields.
func (m Message) Record() map[string]any {
	rec := map[string]any{
		"sender":    m.Sender,
		"timestamp": m.Timestamp.UnixMilli(),
	}
	if m.Text != "" {
		rec["text"] = m.Text
	}
	if m.ImageData != "" {
		rec["imageData"] = m.ImageData
	}
	if m.ImageURL != "" {
		rec["imageUrl"] = m.ImageURL
	}
	return rec
}
