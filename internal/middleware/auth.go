package middleware

import (
	"errors"
	"rewear/internal/apperr"
	"rewear/internal/logger"
	"rewear/internal/models"
	"rewear/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	SessionUserKey = "user_id"
	IdentityKey    = "identity"
)

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	User *models.User
}

func (i *Identity) Actor() services.Actor {
	return services.Actor{ID: i.User.ID, Admin: i.User.IsAdmin()}
}

// AuthResult is the outcome of an authorization check.
type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthUnauthenticated
	AuthForbidden
)

// Requirement is what a route needs from the caller.
type Requirement int

const (
	NeedUser Requirement = iota
	NeedAdmin
)

// Authorize decides whether id satisfies need. A nil id is anonymous.
func Authorize(id *Identity, need Requirement) AuthResult {
	if id == nil || id.User == nil {
		return AuthUnauthenticated
	}
	if need == NeedAdmin && !id.User.IsAdmin() {
		return AuthForbidden
	}
	return AuthOK
}

// Err maps a failed result to its domain error.
func (r AuthResult) Err() error {
	switch r {
	case AuthUnauthenticated:
		return apperr.Unauthorized("Authentication required")
	case AuthForbidden:
		return apperr.Forbidden("Admin access required")
	}
	return nil
}

// LoadUser resolves the session user and stores an Identity in the context.
// Sessions pointing at a missing or deactivated account are cleared.
func LoadUser(users *services.UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(SessionUserKey)
		id, ok := raw.(uint)
		if raw != nil && !ok {
			session.Clear()
			_ = session.Save()
		}
		if ok {
			user, err := users.Get(c.Request.Context(), id)
			switch {
			case err == nil && user.IsActive:
				c.Set(IdentityKey, &Identity{User: user})
				c.Set(logger.UserIDKey, user.ID)
			case err == nil, errors.Is(err, apperr.ErrNotFound):
				session.Clear()
				_ = session.Save()
			default:
				log.WithError(err).Error("Failed to load session user")
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return nil
}

// Require aborts the request unless the caller satisfies need.
func Require(need Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if res := Authorize(CurrentIdentity(c), need); res != AuthOK {
			abortWithError(c, res.Err())
			return
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc { return Require(NeedUser) }

// AdminRequired ensures the caller is an admin.
func AdminRequired() gin.HandlerFunc { return Require(NeedAdmin) }

func abortWithError(c *gin.Context, err error) {
	e := apperr.From(err)
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), gin.H{"success": false, "message": e.Message})
}
