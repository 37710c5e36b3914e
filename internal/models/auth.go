package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the realm roles the API recognises.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleReviewer  UserRole = "reviewer"
	RoleMember    UserRole = "member"
)

// RealmAccess mirrors the realm_access claim of Keycloak access tokens.
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// JWTClaims is the payload of Keycloak-issued access tokens. The token
// subject is the stable user identifier used as requester/reviewer/actor id.
type JWTClaims struct {
	PreferredUsername string      `json:"preferred_username"`
	Email             string      `json:"email"`
	RealmAccess       RealmAccess `json:"realm_access"`
	jwt.RegisteredClaims
}

// UserID returns the stable caller identifier.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// HasRole reports whether the token carries the given realm role.
func (c *JWTClaims) HasRole(role UserRole) bool {
	if c == nil {
		return false
	}
	for _, r := range c.RealmAccess.Roles {
		if UserRole(r) == role {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
