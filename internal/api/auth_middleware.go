package api

import (
	"net/http"
	"strings"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and injects the actor identity
// into the context.
func AuthRequired(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		claims, err := v.parse(strings.TrimPrefix(header, constants.BearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		c.Set(constants.CtxActorID, claims.Subject)
		c.Set(constants.CtxRole, claims.Role)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(constants.CtxRole) != constants.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrAdminRequired})
			return
		}
		c.Next()
	}
}
