package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/consult-api/internal/handler"
	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/pkg/auth"
)

const contextActor = "actor"

type AuthMiddleware struct {
	tokens *auth.JWTService
}

func NewAuthMiddleware(tokens *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the acting
// clinician in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(contextActor, model.ClinicianContext{
			ClinicianID: claims.ClinicianID,
			Email:       claims.Email,
		})
		c.Next()
	}
}

// Actor returns the authenticated clinician stored by Authenticate.
func Actor(c *gin.Context) model.ClinicianContext {
	if v, ok := c.Get(contextActor); ok {
		if actor, ok := v.(model.ClinicianContext); ok {
			return actor
		}
	}
	return model.ClinicianContext{}
}
