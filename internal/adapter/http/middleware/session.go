package middleware

import (
	"errors"
	"net/http"
	"strings"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"
	"x402_gateway/pkg"

	"github.com/gin-gonic/gin"
)

const ctxUser = "session.user"

// RequireSession rejects requests without a valid bearer session.
func RequireSession(sessions interfaces.ISessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = strings.TrimSpace(token[7:])
		}

		user, err := sessions.GetCurrentUser(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			appErr := pkg.NewDomainError("UNAUTHORIZED", "Unauthorized", err, status)
			if !errors.Is(err, interfaces.ErrUnauthorized) {
				appErr = pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
			}
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (entities.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return entities.User{}, false
	}
	u, ok := v.(entities.User)
	return u, ok
}
