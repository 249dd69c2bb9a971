package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"support-widget/internal/service"
)

const contextClaimsKey = "context_claims"

// ContextTokenMiddleware valida el token del contexto de navegacion y guarda los claims.
func ContextTokenMiddleware(tokens *service.ContextTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "context tokens not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// GetContextClaims obtiene los claims del contexto de navegacion.
func GetContextClaims(c *gin.Context) (service.ContextClaims, bool) {
	val, ok := c.Get(contextClaimsKey)
	if !ok {
		return service.ContextClaims{}, false
	}
	claims, ok := val.(service.ContextClaims)
	return claims, ok
}
