// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated party behind a request.
// Handlers depend on this instead of reading gin context keys directly.
type Identity interface {
	// UserID returns the authenticated party's ID.
	UserID() uuid.UUID
	// DisplayName returns the name carried by the access token, if any.
	DisplayName() string
	// Roles returns the party's assigned roles.
	Roles() []string
	// HasRole checks if the party has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the party is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	name          string
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID        { return i.userID }
func (i *identity) DisplayName() string      { return i.name }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	uid, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	userID, ok := uid.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	id := &identity{userID: userID, authenticated: true}
	if roles, ok := c.Get(ContextRolesKey); ok {
		id.roles, _ = roles.([]string)
	}
	id.name = c.GetString(ContextNameKey)
	return id
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the party is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}
