package enums

import "fmt"

// ActorRole is carried in admin access tokens.
type ActorRole string

const (
	ActorRoleAdmin ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
}

// IsValid checks whether the given role matches the canonical enum.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw strings into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
