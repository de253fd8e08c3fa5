package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-sync/internal/repository"
	"chat-sync/internal/service"
)

// SessionHandler expone el CRUD paginado de sesiones.
type SessionHandler struct {
	logger   *zap.Logger
	sessions *service.SessionService
}

func NewSessionHandler(logger *zap.Logger, sessions *service.SessionService) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{logger: logger, sessions: sessions}
}

// List maneja GET /sessions?page=&page_size=. Página 1 es la más reciente.
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))

	sessions, err := h.sessions.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

// Create maneja POST /sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	// El título es opcional; un cuerpo vacío crea la sesión con el default.
	var req struct {
		Title string `json:"title"`
	}
	_ = c.ShouldBindJSON(&req)

	session, err := h.sessions.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": session})
}

// Update maneja PUT /sessions/:id (rename).
func (h *SessionHandler) Update(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessions.Rename(c.Request.Context(), userID, c.Param("id"), req.Title)
	if err != nil {
		h.respondSessionError(c, err, "could not update session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

// Delete maneja DELETE /sessions/:id. No hay endpoint batch: el cliente
// itera borrados individuales.
func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondSessionError(c, err, "could not delete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SessionHandler) respondSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrSessionNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": "session not owned"})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
