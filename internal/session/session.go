// Package session carries the authenticated caller through a request.
package session

import (
	"github.com/gin-gonic/gin"

	"github.com/internhub/backend/internal/models"
)

const contextKey = "session"

// Session identifies the caller of a request.
type Session struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Company  string      `json:"company,omitempty"`
}

// IsAdmin reports whether the caller has the ADMIN role.
func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Set attaches s to the request.
func Set(c *gin.Context, s Session) {
	c.Set(contextKey, s)
}

// From returns the session attached by the auth middleware.
func From(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
