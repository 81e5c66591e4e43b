package models

import "strings"

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleIntern Role = "INTERN"
)

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleIntern:
		return RoleIntern, true
	}
	return "", false
}

// Credential is a stored login. Password holds a bcrypt hash.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Company  string `json:"company,omitempty"`
}

// CredentialPublic is Credential without the password hash for API responses.
type CredentialPublic struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Company  string `json:"company,omitempty"`
}

// ToPublic converts Credential to CredentialPublic.
func (c *Credential) ToPublic() CredentialPublic {
	return CredentialPublic{
		Username: c.Username,
		Role:     c.Role,
		Company:  c.Company,
	}
}
