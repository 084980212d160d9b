package middleware

import (
	"strings"

	"roommate_go/internal/apperr"
	"roommate_go/internal/httputil"
	"roommate_go/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// AuthRequired проверяет Bearer-токен и кладёт Identity в контекст запроса
func AuthRequired(signer identity.Signer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httputil.RespondAppError(c, log, apperr.New(apperr.InvalidCredentials, "authenticate", "bearer token required"))
			return
		}
		id, err := identity.Decode(token, signer)
		if err != nil {
			httputil.RespondAppError(c, log, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// CurrentIdentity возвращает Identity, положенную AuthRequired.
func CurrentIdentity(c *gin.Context) identity.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}
	}
	id, _ := v.(identity.Identity)
	return id
}
