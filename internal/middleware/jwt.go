package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/service"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"

	"github.com/gin-gonic/gin"
)

type TokenParser interface {
	ParseAccessToken(token string) (*service.Identity, error)
}

// JWTMiddleware rejects requests without a valid bearer token with 401, which
// is what drives the client's refresh.
func JWTMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constraints.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, constraints.BearerPrefix)
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, v1.ErrorBody{Message: "Authorization header missing"})
			return
		}

		id, err := parser.ParseAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, v1.ErrorBody{Message: "Invalid access token"})
			return
		}

		c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
