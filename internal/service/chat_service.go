package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-sync/internal/domain"
	"chat-sync/internal/llm"
	"chat-sync/internal/repository"
)

// ChatService genera la respuesta del asistente para un envío de chat y la
// entrega de a fragmentos, persistiendo ambos mensajes y tocando la sesión
// para que suba al frente del orden por updated_at.
type ChatService struct {
	logger   *zap.Logger
	llm      llm.LLMClient
	sessions repository.SessionRepository
	messages *MessageService
}

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrChatInvalidInput         = errors.New("chat invalid input")
)

const (
	fragmentRunes = 24
	previewRunes  = 120
	titleRunes    = 40
)

func NewChatService(
	logger *zap.Logger,
	llmClient llm.LLMClient,
	sessions repository.SessionRepository,
	messages *MessageService,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger:   logger,
		llm:      llmClient,
		sessions: sessions,
		messages: messages,
	}
}

// StreamReply procesa un mensaje del usuario: asegura la sesión (creándola
// si session_id viene vacío), persiste el mensaje, genera la respuesta y
// la emite fragmento a fragmento. Los adjuntos del envío entran al prompt
// como referencias. Devuelve el mensaje del asistente y la sesión usada.
func (s *ChatService) StreamReply(
	ctx context.Context,
	userID, sessionID, model, content string,
	files []string,
	emit func(fragment string) error,
) (domain.Message, domain.Session, error) {
	if s == nil || s.llm == nil || s.sessions == nil || s.messages == nil {
		return domain.Message{}, domain.Session{}, ErrChatServiceNotConfigured
	}
	content = strings.TrimSpace(content)
	userID = strings.TrimSpace(userID)
	if content == "" || userID == "" {
		return domain.Message{}, domain.Session{}, ErrChatInvalidInput
	}

	session, err := s.ensureSession(ctx, userID, sessionID, content)
	if err != nil {
		return domain.Message{}, domain.Session{}, err
	}

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.messages.Save(ctx, userMsg); err != nil {
		return domain.Message{}, domain.Session{}, fmt.Errorf("save user message: %w", err)
	}

	prompt, err := s.buildPrompt(ctx, session.ID, content, files)
	if err != nil {
		return domain.Message{}, domain.Session{}, err
	}

	reply, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return domain.Message{}, domain.Session{}, fmt.Errorf("generate reply: %w", err)
	}

	for _, fragment := range SplitFragments(reply, fragmentRunes) {
		if emit == nil {
			break
		}
		if err := emit(fragment); err != nil {
			// Cliente desconectado: la respuesta igual se persiste completa.
			s.logger.Warn("emit fragment failed", zap.String("session_id", session.ID), zap.Error(err))
			break
		}
	}

	assistantMsg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: session.ID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Save(ctx, assistantMsg); err != nil {
		return domain.Message{}, domain.Session{}, fmt.Errorf("save assistant message: %w", err)
	}

	if err := s.sessions.Touch(ctx, session.ID, truncateRunes(reply, previewRunes), assistantMsg.CreatedAt); err != nil {
		s.logger.Warn("touch session failed", zap.String("session_id", session.ID), zap.Error(err))
	}

	return assistantMsg, session, nil
}

// History lista los mensajes persistidos de una sesión del usuario.
func (s *ChatService) History(ctx context.Context, userID, sessionID string) ([]domain.Message, error) {
	if s == nil || s.sessions == nil || s.messages == nil {
		return nil, ErrChatServiceNotConfigured
	}
	session, err := s.sessions.GetByID(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	if session.UserID != strings.TrimSpace(userID) {
		return nil, ErrSessionNotOwned
	}
	return s.messages.ListBySession(ctx, session.ID)
}

func (s *ChatService) ensureSession(ctx context.Context, userID, sessionID, content string) (domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		now := time.Now().UTC()
		session := domain.Session{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     truncateRunes(content, titleRunes),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return domain.Session{}, fmt.Errorf("create session: %w", err)
		}
		return session, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.UserID != userID {
		return domain.Session{}, ErrSessionNotOwned
	}
	return session, nil
}

func (s *ChatService) buildPrompt(ctx context.Context, sessionID, content string, files []string) (string, error) {
	history, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("list history: %w", err)
	}

	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		b.WriteString("attachment: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(domain.RoleUser)
	b.WriteString(": ")
	b.WriteString(content)
	return b.String(), nil
}

// SplitFragments corta el texto en fragmentos de a lo sumo size runas. La
// concatenación de los fragmentos reproduce el texto original exacto.
func SplitFragments(text string, size int) []string {
	if size <= 0 {
		size = fragmentRunes
	}
	if text == "" {
		return nil
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func truncateRunes(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}
