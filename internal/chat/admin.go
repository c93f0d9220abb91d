package chat

import (
	"context"
	"fmt"
	"sort"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// UserEntry is one row of the user management panel.
type UserEntry struct {
	Pub     string
	Profile domain.Profile
}

// ListUsers enumerates every known identity except the caller, resolved to
// displayname and role. Admin only; moderators see the moderation panel
// but not this one.
func (s *Session) ListUsers(ctx context.Context) ([]UserEntry, error) {
	if err := s.adminGuard(); err != nil {
		return nil, err
	}
	snapshot, err := s.store.Children(ctx, "profiles")
	if err != nil {
		return nil, fmt.Errorf("chat.ListUsers: %w", err)
	}
	self := s.Identity().Pub
	users := make([]UserEntry, 0, len(snapshot))
	for pub, rec := range snapshot {
		if pub == self {
			continue
		}
		users = append(users, UserEntry{Pub: pub, Profile: domain.ProfileFromRecord(pub, rec)})
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Profile.DisplayName < users[j].Profile.DisplayName
	})
	return users, nil
}

// SetUserRole writes a new role to another user's profile. Self-role-edit
// is rejected client-side even for admins.
func (s *Session) SetUserRole(ctx context.Context, pub string, role domain.Role) error {
	if err := s.adminGuard(); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("chat.SetUserRole: unknown role %q", role)
	}
	if pub == s.Identity().Pub {
		return fmt.Errorf("you cannot change your own role")
	}
	if err := s.store.Write(ctx, "profiles/"+pub, graph.Record{"role": string(role)}); err != nil {
		return fmt.Errorf("chat.SetUserRole: %w", err)
	}
	return nil
}

func (s *Session) adminGuard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return fmt.Errorf("please log in first")
	}
	if s.profile.Role != domain.RoleAdmin {
		return fmt.Errorf("only admins can manage users")
	}
	return nil
}
