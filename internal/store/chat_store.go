package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-sync/internal/api"
	"chat-sync/internal/domain"
)

// StreamAPI es el contrato del envío de chat en streaming. *api.Client lo
// implementa.
type StreamAPI interface {
	StreamChat(ctx context.Context, req api.ChatRequest, onFragment func(api.Fragment)) error
}

var (
	ErrChatStoreNotConfigured = errors.New("chat store not configured")
	ErrChatEmptyMessage       = errors.New("chat empty message")
	ErrStreamInFlight         = errors.New("stream already in flight")
)

// FallbackResponse reemplaza el contenido del mensaje pendiente cuando el
// stream falla, en lugar de dejar una respuesta parcial corrupta.
const FallbackResponse = "Sorry, something went wrong while generating a response. Please try again."

// ChatStore acumula los mensajes de la conversación activa y el stream en
// curso. Durante un stream activo exactamente un mensaje de asistente al
// final de la lista es el blanco de mutación.
type ChatStore struct {
	mu        sync.Mutex
	logger    *zap.Logger
	api       StreamAPI
	messages  []domain.Message
	sessionID string
	model     string
	files     []string
	isLoading bool
	cancel    context.CancelFunc
	now       func() time.Time

	// OnFragment, si está seteado, se invoca por cada fragmento recibido
	// además de acumularlo. Lo usa la CLI para imprimir en vivo.
	OnFragment func(f api.Fragment)
}

func NewChatStore(streamAPI StreamAPI, logger *zap.Logger) *ChatStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatStore{
		logger: logger,
		api:    streamAPI,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Messages devuelve una copia de los mensajes acumulados.
func (s *ChatStore) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// IsLoading informa si hay un stream activo.
func (s *ChatStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// Reset limpia la conversación local y apunta el store a otra sesión (o a
// una placeholder vacía cuando id es ""). El stream activo, si hay, se
// aborta primero.
func (s *ChatStore) Reset(sessionID string) {
	s.Abort()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.sessionID = sessionID
}

// SetModel fija el modelo a usar en los próximos envíos.
func (s *ChatStore) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = name
}

// SetFiles fija los adjuntos del próximo envío.
func (s *ChatStore) SetFiles(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
}

// SessionID devuelve la sesión a la que apunta el store.
func (s *ChatStore) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Send agrega el mensaje del usuario más un asistente placeholder en
// loading, abre el stream y acumula cada fragmento en ese mensaje final.
// Rechaza reentradas mientras un stream sigue activo: dos streams
// concurrentes corromperían el mismo buffer. Bloquea hasta el estado
// terminal; Abort desde otra goroutine cancela conservando el parcial.
func (s *ChatStore) Send(ctx context.Context, content string) error {
	if s == nil || s.api == nil {
		return ErrChatStoreNotConfigured
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrChatEmptyMessage
	}

	s.mu.Lock()
	if s.isLoading {
		s.mu.Unlock()
		return ErrStreamInFlight
	}
	s.isLoading = true

	now := s.now()
	s.messages = append(s.messages,
		domain.Message{
			ID:        uuid.NewString(),
			SessionID: s.sessionID,
			Role:      domain.RoleUser,
			Content:   content,
			CreatedAt: now,
		},
		domain.Message{
			ID:        uuid.NewString(),
			SessionID: s.sessionID,
			Role:      domain.RoleAssistant,
			CreatedAt: now,
			Loading:   true,
		},
	)

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	req := api.ChatRequest{
		Message:   content,
		SessionID: s.sessionID,
		ModelName: s.model,
		Files:     s.files,
	}
	s.mu.Unlock()

	err := s.api.StreamChat(streamCtx, req, s.appendFragment)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil
	s.isLoading = false

	// El mensaje final se re-localiza acá en vez de usar una referencia
	// capturada antes del stream: Reset pudo haber vaciado la lista.
	msg := s.trailingAssistant()
	if msg == nil {
		return err
	}
	msg.Loading = false
	msg.Typing = false

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		// Abortado por el usuario: el texto parcial ya acumulado se
		// conserva, no se revierte.
		return nil
	default:
		s.logger.Warn("chat stream failed", zap.String("session_id", req.SessionID), zap.Error(err))
		msg.Content = FallbackResponse
		msg.Reasoning = ""
		return err
	}
}

// Abort cancela el stream en curso, si hay. El parcial ya recibido queda.
func (s *ChatStore) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *ChatStore) appendFragment(f api.Fragment) {
	s.mu.Lock()
	if msg := s.trailingAssistant(); msg != nil {
		if f.Reasoning {
			msg.Reasoning += f.Text
		} else {
			msg.Content += f.Text
		}
		msg.Typing = true
	}
	observer := s.OnFragment
	s.mu.Unlock()

	if observer != nil {
		observer(f)
	}
}

// trailingAssistant devuelve el mensaje de asistente al final de la lista,
// o nil si el último mensaje no es del asistente. Llamar con el lock tomado.
func (s *ChatStore) trailingAssistant() *domain.Message {
	if len(s.messages) == 0 {
		return nil
	}
	last := &s.messages[len(s.messages)-1]
	if last.Role != domain.RoleAssistant {
		return nil
	}
	return last
}
