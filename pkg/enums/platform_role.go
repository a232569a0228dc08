package enums

import "fmt"

// PlatformRole is the platform-level role carried in an access token.
type PlatformRole string

const (
	PlatformRoleAdmin  PlatformRole = "platform_admin"
	PlatformRoleMember PlatformRole = "member"
)

var validPlatformRoles = []PlatformRole{
	PlatformRoleAdmin,
	PlatformRoleMember,
}

// String implements fmt.Stringer.
func (p PlatformRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlatformRole.
func (p PlatformRole) IsValid() bool {
	for _, candidate := range validPlatformRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatformRole converts raw input into a PlatformRole.
func ParsePlatformRole(value string) (PlatformRole, error) {
	for _, candidate := range validPlatformRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform role %q", value)
}
