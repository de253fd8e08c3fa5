package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-sync/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	sessionH *SessionHandler,
	chatH *ChatHandler,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)

	authorized := r.Group("/")
	authorized.Use(JWTAuthMiddleware(jwtSvc))

	authorized.GET("/sessions", sessionH.List)
	authorized.POST("/sessions", sessionH.Create)
	authorized.PUT("/sessions/:id", sessionH.Update)
	authorized.DELETE("/sessions/:id", sessionH.Delete)
	authorized.GET("/sessions/:id/messages", chatH.History)

	authorized.GET("/models", chatH.Models)
	authorized.POST("/chat/stream", chatH.StreamChat)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
