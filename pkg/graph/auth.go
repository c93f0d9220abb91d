package graph

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// AuthError is a user-facing authentication failure: wrong credentials,
// taken alias, missing session. Its message is shown verbatim.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsAuthError reports whether err (or any wrapped error) is an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Identity is an authenticated keypair session. The public key hex is the
// identity key everywhere in the graph; the private key signs nothing yet
// but is what makes the alias+passphrase pair recoverable.
type Identity struct {
	Alias string
	Pub   string
	priv  ed25519.PrivateKey
}

// scrypt parameters for passphrase-derived keys.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// deriveIdentity turns alias+passphrase into a deterministic ed25519
// keypair, so the same credentials always recover the same identity on
// any peer without a central registry.
func deriveIdentity(alias, passphrase string) (*Identity, error) {
	seed, err := scrypt.Key([]byte(passphrase), []byte("driftroom/"+alias), scryptN, scryptR, scryptP, ed25519.SeedSize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	return &Identity{Alias: alias, Pub: pub, priv: priv}, nil
}

func validateAlias(alias string) error {
	if alias == "" {
		return fmt.Errorf("alias cannot be empty")
	}
	if strings.ContainsAny(alias, " \t\r\n/") {
		return fmt.Errorf("alias cannot contain spaces or slashes")
	}
	if len(alias) > 24 {
		return fmt.Errorf("alias must be 24 characters or fewer")
	}
	return nil
}

func validatePassphrase(passphrase string) error {
	if len(passphrase) < 6 {
		return fmt.Errorf("passphrase must be at least 6 characters")
	}
	return nil
}

// CreateIdentity registers a new alias in the graph and returns its
// identity. The registration under aliases/<alias> is what makes
// duplicate-alias signups detectable, to the extent the local replica has
// seen the original registration.
func CreateIdentity(ctx context.Context, store Store, alias, passphrase string) (*Identity, error) {
	if err := validateAlias(alias); err != nil {
		return nil, &AuthError{Op: "graph.CreateIdentity", Message: err.Error()}
	}
	if err := validatePassphrase(passphrase); err != nil {
		return nil, &AuthError{Op: "graph.CreateIdentity", Message: err.Error()}
	}
	id, err := deriveIdentity(alias, passphrase)
	if err != nil {
		return nil, fmt.Errorf("graph.CreateIdentity: %w", err)
	}
	existing, err := store.ReadOnce(ctx, "aliases/"+alias)
	if err != nil {
		return nil, fmt.Errorf("graph.CreateIdentity: %w", err)
	}
	if existing != nil {
		if pub, _ := existing["pub"].(string); pub != id.Pub {
			return nil, &AuthError{Op: "graph.CreateIdentity", Message: "alias already taken"}
		}
	}
	if err := store.Write(ctx, "aliases/"+alias, Record{"pub": id.Pub}); err != nil {
		return nil, fmt.Errorf("graph.CreateIdentity: %w", err)
	}
	return id, nil
}

// Authenticate recovers the identity for alias+passphrase and checks it
// against the alias registration.
func Authenticate(ctx context.Context, store Store, alias, passphrase string) (*Identity, error) {
	id, err := deriveIdentity(alias, passphrase)
	if err != nil {
		return nil, fmt.Errorf("graph.Authenticate: %w", err)
	}
	existing, err := store.ReadOnce(ctx, "aliases/"+alias)
	if err != nil {
		return nil, fmt.Errorf("graph.Authenticate: %w", err)
	}
	if existing == nil {
		return nil, &AuthError{Op: "graph.Authenticate", Message: "no account for alias " + alias}
	}
	if pub, _ := existing["pub"].(string); pub != id.Pub {
		return nil, &AuthError{Op: "graph.Authenticate", Message: "wrong alias or passphrase"}
	}
	return id, nil
}

// sessionFile holds the recalled identity between runs, like the browser
// original's sessionStorage pair.
type sessionFile struct {
	Alias string `json:"alias"`
	Seed  string `json:"seed"`
}

func sessionPath(dir string) string {
	return filepath.Join(dir, "session")
}

// SaveSession persists the identity under dir with owner-only permissions.
func SaveSession(dir string, id *Identity) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("graph.SaveSession: %w", err)
	}
	data, err := json.Marshal(sessionFile{Alias: id.Alias, Seed: hex.EncodeToString(id.priv.Seed())})
	if err != nil {
		return fmt.Errorf("graph.SaveSession: %w", err)
	}
	if err := os.WriteFile(sessionPath(dir), data, 0o600); err != nil {
		return fmt.Errorf("graph.SaveSession: %w", err)
	}
	return nil
}

// RecallSession restores a prior identity from dir. A missing or unreadable
// session file means "logged out", never a transient error.
func RecallSession(dir string) (*Identity, error) {
	data, err := os.ReadFile(sessionPath(dir))
	if err != nil {
		return nil, &AuthError{Op: "graph.RecallSession", Message: "no active session"}
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, &AuthError{Op: "graph.RecallSession", Message: "session file corrupted"}
	}
	seed, err := hex.DecodeString(sf.Seed)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, &AuthError{Op: "graph.RecallSession", Message: "session file corrupted"}
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	return &Identity{Alias: sf.Alias, Pub: pub, priv: priv}, nil
}

// EndSession clears the local session file. The identity itself persists
// in the graph; only the local recall reference is removed.
func EndSession(dir string) error {
	err := os.Remove(sessionPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("graph.EndSession: %w", err)
	}
	return nil
}
