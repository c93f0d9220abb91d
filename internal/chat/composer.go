package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// MaxImageBytes is the hard ceiling on attached images. Anything larger is
// rejected before being read; data URIs in a replicated store are already
// a stretch.
const MaxImageBytes = 2 * 1024 * 1024

// SendText writes a text message to the active chatroom. Whitespace-only
// input is silently ignored; a missing identity or active room is a
// guard error surfaced to the user. The write is fire-and-forget from the
// UI's perspective: the input clears on submission, not acknowledgment.
func (s *Session) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	roomID, err := s.composeGuard()
	if err != nil {
		return err
	}
	msg := domain.Message{
		Text:      text,
		Sender:    s.Identity().Pub,
		Timestamp: time.Now(),
	}
	if _, err := s.store.Append(ctx, "chatrooms/"+roomID+"/messages", graph.Record(msg.Record())); err != nil {
		return fmt.Errorf("chat.SendText: %w", err)
	}
	return nil
}

// SendImage encodes an already-read image as a data URI and writes it to
// the active chatroom. Callers check MaxImageBytes against the file size
// before reading; this re-checks the encoded payload as a backstop.
func (s *Session) SendImage(ctx context.Context, mimeType string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("chat.SendImage: empty image")
	}
	if len(data) > MaxImageBytes {
		return fmt.Errorf("chat.SendImage: image exceeds the %d MiB limit", MaxImageBytes/(1024*1024))
	}
	roomID, err := s.composeGuard()
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	msg := domain.Message{
		ImageData: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Sender:    s.Identity().Pub,
		Timestamp: time.Now(),
	}
	if _, err := s.store.Append(ctx, "chatrooms/"+roomID+"/messages", graph.Record(msg.Record())); err != nil {
		return fmt.Errorf("chat.SendImage: %w", err)
	}
	return nil
}

// composeGuard enforces the authorization preconditions shared by every
// outgoing write: an authenticated identity and a non-null active room.
func (s *Session) composeGuard() (roomID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return "", fmt.Errorf("please log in to send messages")
	}
	if s.activeID == "" {
		return "", fmt.Errorf("no chatroom selected")
	}
	return s.activeID, nil
}
