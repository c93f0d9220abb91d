package domain

import "fmt"

// AnonymousName is the displayname used when no identity is present.
const AnonymousName = "Anonymous"

// Profile is the public, mutable record attached to an identity.
// It lives in the graph at profiles/<pub>.
type Profile struct {
	DisplayName string `json:"displayname"`
	Role        Role   `json:"role"`
}

// FallbackDisplayName derives a displayname from a public key when the
// profile record carries none: the first 5 characters plus an ellipsis.
func FallbackDisplayName(pub string) string {
	if len(pub) > 5 {
		return pub[:5] + "…"
	}
	return pub
}

// ProfileFromRecord decodes a raw graph record into a Profile.
// Missing displayname falls back to the truncated public key and a missing
// or unknown role falls back to user, matching what the store may contain
// for accounts created before the profile schema settled.
func ProfileFromRecord(pub string, rec map[string]any) Profile {
	p := Profile{
		DisplayName: FallbackDisplayName(pub),
		Role:        RoleUser,
	}
	if rec == nil {
		return p
	}
	if name, ok := rec["displayname"].(string); ok && name != "" {
		p.DisplayName = name
	}
	if role, ok := rec["role"].(string); ok && Role(role).Valid() {
		p.Role = Role(role)
	}
	return p
}

// Record encodes the profile as raw graph fields.
func (p Profile) Record() map[string]any {
	return map[string]any{
		"displayname": p.DisplayName,
		"role":        string(p.Role),
	}
}

// Validate rejects profiles that must not be written.
func (p Profile) Validate() error {
	if p.DisplayName == "" {
		return fmt.Errorf("display name cannot be empty")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	return nil
}
