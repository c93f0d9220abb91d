package graph

import (
	"context"
	"testing"
)

func TestCreateIdentityAndAuthenticate(t *testing.T) {
	g := New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	id, err := CreateIdentity(ctx, g, "alice", "hunter2x")
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if id.Pub == "" {
		t.Fatal("expected non-empty public key")
	}

	back, err := Authenticate(ctx, g, "alice", "hunter2x")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if back.Pub != id.Pub {
		t.Errorf("recovered pub %q != created pub %q", back.Pub, id.Pub)
	}
}

func TestAuthenticateWrongPassphrase(t *testing.T) {
	g := New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	if _, err := CreateIdentity(ctx, g, "alice", "hunter2x"); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	_, err := Authenticate(ctx, g, "alice", "wrong-passphrase")
	if err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}

func TestAuthenticateUnknownAlias(t *testing.T) {
	g := New()
	defer g.Close() //nolint:errcheck

	_, err := Authenticate(context.Background(), g, "nobody", "whatever")
	if err == nil {
		t.Fatal("expected error for unknown alias")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}

func TestCreateIdentityAliasTaken(t *testing.T) {
	g := New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	if _, err := CreateIdentity(ctx, g, "alice", "hunter2x"); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	_, err := CreateIdentity(ctx, g, "alice", "different-pass")
	if err == nil {
		t.Fatal("expected error for taken alias")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}

func TestCreateIdentityValidation(t *testing.T) {
	g := New()
	defer g.Close() //nolint:errcheck
	ctx := context.Background()

	cases := []struct {
		name       string
		alias      string
		passphrase string
	}{
		{"empty alias", "", "hunter2x"},
		{"alias with space", "al ice", "hunter2x"},
		{"alias with slash", "al/ice", "hunter2x"},
		{"alias too long", "abcdefghijklmnopqrstuvwxy", "hunter2x"},
		{"short passphrase", "alice", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CreateIdentity(ctx, g, tc.alias, tc.passphrase); err == nil {
				t.Errorf("expected validation error for alias=%q passphrase=%q", tc.alias, tc.passphrase)
			}
		})
	}
}

func TestDeterministicDerivation(t *testing.T) {
	a, err := deriveIdentity("alice", "hunter2x")
	if err != nil {
		t.Fatalf("deriveIdentity: %v", err)
	}
	b, err := deriveIdentity("alice", "hunter2x")
	if err != nil {
		t.Fatalf("deriveIdentity: %v", err)
	}
	if a.Pub != b.Pub {
		t.Errorf("same credentials derived different keys: %q vs %q", a.Pub, b.Pub)
	}

	c, err := deriveIdentity("bob", "hunter2x")
	if err != nil {
		t.Fatalf("deriveIdentity: %v", err)
	}
	if c.Pub == a.Pub {
		t.Error("different aliases derived the same key")
	}
}

func TestSessionSaveRecallEnd(t *testing.T) {
	dir := t.TempDir()

	id, err := deriveIdentity("alice", "hunter2x")
	if err != nil {
		t.Fatalf("deriveIdentity: %v", err)
	}
	if err := SaveSession(dir, id); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	back, err := RecallSession(dir)
	if err != nil {
		t.Fatalf("RecallSession: %v", err)
	}
	if back.Alias != "alice" || back.Pub != id.Pub {
		t.Errorf("recalled %s/%s, want alice/%s", back.Alias, back.Pub, id.Pub)
	}

	if err := EndSession(dir); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if _, err := RecallSession(dir); err == nil {
		t.Error("expected AuthError after EndSession")
	}
	// Ending twice is fine.
	if err := EndSession(dir); err != nil {
		t.Errorf("second EndSession: %v", err)
	}
}

func TestRecallSessionMissing(t *testing.T) {
	_, err := RecallSession(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing session file")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}
