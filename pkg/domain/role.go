package domain

// Role is the moderation role attached to a profile.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every assignable role, in escalation order.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may approve or reject chatrooms.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Next returns the following role in the cycle user -> moderator -> admin -> user.
// Unknown roles cycle back to user.
func (r Role) Next() Role {
	switch r {
	case RoleUser:
		return RoleModerator
	case RoleModerator:
		return RoleAdmin
	default:
		return RoleUser
	}
}
