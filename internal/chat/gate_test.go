package chat

import (
	"context"
	"testing"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

func TestSignupWritesProfile(t *testing.T) {
	g := graph.New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	id, err := Signup(ctx, g, "alice", "hunter2x", "  Alice Lidell  ")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	rec, err := g.ReadOnce(ctx, "profiles/"+id.Pub)
	if err != nil {
		t.Fatalf("ReadOnce: %v", err)
	}
	profile := domain.ProfileFromRecord(id.Pub, rec)
	if profile.DisplayName != "Alice Lidell" {
		t.Errorf("displayname = %q, want trimmed %q", profile.DisplayName, "Alice Lidell")
	}
	if profile.Role != domain.RoleUser {
		t.Errorf("role = %q, want user", profile.Role)
	}
}

func TestSignupRequiresDisplayName(t *testing.T) {
	g := graph.New()
	defer g.Close() //nolint:errcheck

	if _, err := Signup(context.Background(), g, "alice", "hunter2x", "   "); err == nil {
		t.Error("expected error for blank display name")
	}
}

func TestSignupDuplicateAlias(t *testing.T) {
	g := graph.New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	if _, err := Signup(ctx, g, "alice", "hunter2x", "Alice"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	_, err := Signup(ctx, g, "alice", "other-pass", "Imposter")
	if err == nil {
		t.Fatal("expected duplicate-alias error")
	}
	if !graph.IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	g := graph.New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	created, err := Signup(ctx, g, "alice", "hunter2x", "Alice")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	back, err := Login(ctx, g, "alice", "hunter2x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if back.Pub != created.Pub {
		t.Errorf("login pub %q != signup pub %q", back.Pub, created.Pub)
	}

	if _, err := Login(ctx, g, "alice", "wrong"); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}
