package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-sync/internal/domain"
	"chat-sync/internal/repository"
	"chat-sync/internal/service"
)

// ChatHandler expone el envío de chat en streaming, el historial y la
// lista de modelos.
type ChatHandler struct {
	logger  *zap.Logger
	chat    *service.ChatService
	limiter service.StreamRateLimiter
	models  []domain.Model
}

func NewChatHandler(
	logger *zap.Logger,
	chat *service.ChatService,
	limiter service.StreamRateLimiter,
	models []domain.Model,
) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		logger:  logger,
		chat:    chat,
		limiter: limiter,
		models:  models,
	}
}

// Models maneja GET /models.
func (h *ChatHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.models})
}

// History maneja GET /sessions/:id/messages.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	messages, err := h.chat.History(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotOwned):
			c.JSON(http.StatusForbidden, gin.H{"error": "session not owned"})
		default:
			h.logger.Error("list history failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

// StreamChat maneja POST /chat/stream: responde text/event-stream con
// fragmentos de texto opacos y cierra con el centinela [DONE].
func (h *ChatHandler) StreamChat(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		Message   string   `json:"message" binding:"required"`
		SessionID string   `json:"session_id"`
		ModelName string   `json:"model_name"`
		Files     []string `json:"files"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(userID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(fragment string) error {
		return writeSSE(c.Writer, flusher, "", fragment)
	}

	_, _, err := h.chat.StreamReply(c.Request.Context(), userID, req.SessionID, req.ModelName, req.Message, req.Files, emit)
	if err != nil {
		h.logger.Error("stream reply failed", zap.String("user_id", userID), zap.Error(err))
		// Los headers ya salieron: el error viaja como evento y se cierra.
		_ = writeSSE(c.Writer, flusher, "error", "generation failed")
		return
	}

	_ = writeSSE(c.Writer, flusher, "", "[DONE]")
}

// writeSSE escribe un evento SSE. Un fragmento con saltos de línea sale
// como múltiples líneas data, que el parser del cliente vuelve a unir.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event, text string) error {
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
