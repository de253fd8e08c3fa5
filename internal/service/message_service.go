package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-sync/internal/domain"
	"chat-sync/internal/repository"
)

// MessageService persiste el historial de conversación que el backend
// sirve a los clientes de sincronización. Solo acepta los roles del
// dominio: un rol arbitrario en el historial rompería a los consumidores
// que deciden render y merge según el rol.
type MessageService struct {
	repo repository.MessageRepository
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
	ErrMessageInvalidRole          = errors.New("message invalid role")
)

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

func validMessageRole(role string) bool {
	switch role {
	case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		return true
	}
	return false
}

// Save normaliza y persiste un mensaje, completando id y created_at
// cuando vienen vacíos.
func (s *MessageService) Save(ctx context.Context, msg domain.Message) error {
	if s == nil || s.repo == nil {
		return ErrMessageServiceNotConfigured
	}

	msg.UserID = strings.TrimSpace(msg.UserID)
	msg.SessionID = strings.TrimSpace(msg.SessionID)
	msg.Role = strings.TrimSpace(msg.Role)
	msg.Content = strings.TrimSpace(msg.Content)
	msg.Reasoning = strings.TrimSpace(msg.Reasoning)

	if msg.UserID == "" || msg.Content == "" {
		return ErrMessageInvalidInput
	}
	if !validMessageRole(msg.Role) {
		return ErrMessageInvalidRole
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	return s.repo.Create(ctx, msg)
}

// ListBySession devuelve el historial de una sesión en orden de creación.
// Nunca devuelve nil: los handlers serializan la lista directo como JSON.
func (s *MessageService) ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return []domain.Message{}, nil
	}
	out, err := s.repo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Message{}
	}
	return out, nil
}
