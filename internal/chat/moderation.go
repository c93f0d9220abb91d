package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// CreateChatroom submits a new chatroom in pending status. The duplicate
// name check scans the current snapshot with normalized comparison. It is
// a best-effort guard that can both false-negative and double-submit under
// concurrent creation; there is no atomic uniqueness constraint in the
// store.
func (s *Session) CreateChatroom(ctx context.Context, name, description string) (string, error) {
	id := s.Identity()
	if id == nil {
		return "", fmt.Errorf("please log in to create a chatroom")
	}
	if normalizeRoomName(name) == "" {
		return "", fmt.Errorf("chatroom name cannot be empty")
	}

	snapshot, err := s.store.Children(ctx, "chatrooms")
	if err != nil {
		return "", fmt.Errorf("chat.CreateChatroom: %w", err)
	}
	want := normalizeRoomName(name)
	for key, rec := range snapshot {
		room, err := domain.ChatroomFromRecord(key, rec)
		if err != nil || room.Status == domain.StatusRejected {
			continue
		}
		if normalizeRoomName(room.Name) == want {
			return "", fmt.Errorf("a chatroom named %q already exists", room.Name)
		}
	}

	room := domain.Chatroom{
		Name:        name,
		Description: description,
		Creator:     id.Pub,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now(),
	}
	roomID, err := s.store.Append(ctx, "chatrooms", graph.Record(room.Record()))
	if err != nil {
		return "", fmt.Errorf("chat.CreateChatroom: %w", err)
	}
	return roomID, nil
}

// ListPending returns chatrooms awaiting moderation, oldest first. The
// moderation view itself is guarded; the listing read is not.
func (s *Session) ListPending(ctx context.Context) ([]domain.Chatroom, error) {
	snapshot, err := s.store.Children(ctx, "chatrooms")
	if err != nil {
		return nil, fmt.Errorf("chat.ListPending: %w", err)
	}
	var pending []domain.Chatroom
	for key, rec := range snapshot {
		room, err := domain.ChatroomFromRecord(key, rec)
		if err != nil {
			continue
		}
		if room.Status == domain.StatusPending {
			pending = append(pending, room)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// ApproveChatroom transitions a pending chatroom to approved, stamping the
// acting moderator. The directory subscription independently adds it to
// the sidebar.
func (s *Session) ApproveChatroom(ctx context.Context, roomID string) error {
	if err := s.moderationGuard(); err != nil {
		return err
	}
	fields := graph.Record{
		"status":     string(domain.StatusApproved),
		"approvedBy": s.Identity().Pub,
		"approvedAt": time.Now().UnixMilli(),
	}
	if err := s.store.Write(ctx, "chatrooms/"+roomID, fields); err != nil {
		return fmt.Errorf("chat.ApproveChatroom: %w", err)
	}
	return nil
}

// RejectChatroom transitions a pending chatroom to rejected. Rejected
// chatrooms are not resurfaced anywhere.
func (s *Session) RejectChatroom(ctx context.Context, roomID string) error {
	if err := s.moderationGuard(); err != nil {
		return err
	}
	fields := graph.Record{
		"status":     string(domain.StatusRejected),
		"rejectedBy": s.Identity().Pub,
		"rejectedAt": time.Now().UnixMilli(),
	}
	if err := s.store.Write(ctx, "chatrooms/"+roomID, fields); err != nil {
		return fmt.Errorf("chat.RejectChatroom: %w", err)
	}
	return nil
}

// moderationGuard rejects unauthorized moderation client-side, before any
// write is attempted.
func (s *Session) moderationGuard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return fmt.Errorf("please log in first")
	}
	if !s.profile.Role.CanModerate() {
		return fmt.Errorf("you do not have permission to moderate chatrooms")
	}
	return nil
}
