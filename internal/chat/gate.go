package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// Signup creates an identity and its public profile with the default user
// role. Validation failures and taken aliases come back as graph.AuthError
// and are shown verbatim.
func Signup(ctx context.Context, store graph.Store, alias, passphrase, displayname string) (*graph.Identity, error) {
	displayname = strings.TrimSpace(displayname)
	if displayname == "" {
		return nil, fmt.Errorf("display name cannot be empty")
	}
	id, err := graph.CreateIdentity(ctx, store, alias, passphrase)
	if err != nil {
		return nil, err
	}
	profile := domain.Profile{DisplayName: displayname, Role: domain.RoleUser}
	if err := store.Write(ctx, "profiles/"+id.Pub, graph.Record(profile.Record())); err != nil {
		return nil, fmt.Errorf("chat.Signup: save profile: %w", err)
	}
	return id, nil
}

// Login authenticates an existing alias.
func Login(ctx context.Context, store graph.Store, alias, passphrase string) (*graph.Identity, error) {
	return graph.Authenticate(ctx, store, alias, passphrase)
}
