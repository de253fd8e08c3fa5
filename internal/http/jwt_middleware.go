package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-sync/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware valida el access token y deja los claims en el
// contexto. Todas las rutas de sesiones, mensajes y chat cuelgan de él:
// el user id de los claims es el dueño contra el que se filtra cada
// listado y se verifica cada mutación.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// bearerToken extrae el token del header Authorization. El esquema se
// compara sin distinguir mayúsculas.
func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetAuthClaims obtiene los claims completos desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// GetAuthUserID devuelve el user id autenticado. Es lo único que los
// handlers de sesiones y chat necesitan de los claims.
func GetAuthUserID(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}
