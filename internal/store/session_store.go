package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chat-sync/internal/api"
	"chat-sync/internal/domain"
)

// SessionAPI es el contrato mínimo que el store necesita del backend de
// sesiones. *api.Client lo implementa.
type SessionAPI interface {
	ListSessions(ctx context.Context, page, pageSize int) ([]api.SessionRecord, error)
	CreateSession(ctx context.Context, title string) (api.SessionRecord, error)
	UpdateSession(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error
}

var (
	ErrSessionStoreNotConfigured = errors.New("session store not configured")
	ErrSessionInvalidInput       = errors.New("session invalid input")
)

// SessionStore reconcilia la lista paginada de sesiones del servidor con
// mutaciones locales. Se construye por instancia (nada de singletons) para
// que los tests puedan crear stores independientes.
type SessionStore struct {
	mu       sync.Mutex
	logger   *zap.Logger
	api      SessionAPI
	pager    *Pager
	sessions []domain.Session
	now      func() time.Time
}

func NewSessionStore(sessionAPI SessionAPI, pageSize int, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		logger: logger,
		api:    sessionAPI,
		pager:  NewPager(pageSize),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sessions devuelve una copia de la colección en memoria.
func (s *SessionStore) Sessions() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *SessionStore) State() PagerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.State()
}

func (s *SessionStore) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.HasMore()
}

func (s *SessionStore) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.Page()
}

func (s *SessionStore) PageSize() int {
	return s.pager.PageSize()
}

// RequestPage trae una página de sesiones y la mergea en la colección. Sin
// force es un no-op cuando hay un fetch en vuelo o no queda más por cargar.
// En error la lista previa queda intacta y los flags de carga se limpian.
func (s *SessionStore) RequestPage(ctx context.Context, page int, force bool) error {
	if s == nil || s.api == nil {
		return ErrSessionStoreNotConfigured
	}

	s.mu.Lock()
	if !s.pager.Begin(page, force) {
		s.mu.Unlock()
		return nil
	}
	size := s.pager.PageSize()
	s.mu.Unlock()

	records, err := s.api.ListSessions(ctx, page, size)

	// Se re-toma el lock y se mergea contra el estado actual, no contra una
	// referencia capturada antes del fetch: otra mutación pudo intercalarse.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("list sessions failed", zap.Int("page", page), zap.Error(err))
		s.pager.Finish(page, 0, force, err)
		return err
	}

	fresh := NormalizeSessions(records, s.now())
	s.sessions = MergeSessions(s.sessions, fresh, page)
	s.pager.Finish(page, len(records), force, nil)
	return nil
}

// LoadMore pide la página siguiente al cursor actual.
func (s *SessionStore) LoadMore(ctx context.Context) error {
	if s == nil || s.api == nil {
		return ErrSessionStoreNotConfigured
	}
	s.mu.Lock()
	next := s.pager.Page() + 1
	s.mu.Unlock()
	return s.RequestPage(ctx, next, false)
}

// CreateSession crea la sesión contra el backend y fuerza un refetch de la
// página 1, donde la entrada nueva debe aparecer.
func (s *SessionStore) CreateSession(ctx context.Context, title string) (domain.Session, error) {
	if s == nil || s.api == nil {
		return domain.Session{}, ErrSessionStoreNotConfigured
	}
	record, err := s.api.CreateSession(ctx, strings.TrimSpace(title))
	if err != nil {
		s.logger.Warn("create session failed", zap.Error(err))
		return domain.Session{}, err
	}
	created := NormalizeSession(record, s.now())
	if err := s.RequestPage(ctx, 1, true); err != nil {
		// La creación ya es durable; el refetch fallido solo deja la lista
		// local desactualizada hasta el próximo load.
		s.logger.Warn("resync after create failed", zap.Error(err))
	}
	return created, nil
}

// UpdateSession renombra la sesión y re-trae la página donde el servidor
// la tiene ahora: el orden pudo haber cambiado, no alcanza con parchear.
func (s *SessionStore) UpdateSession(ctx context.Context, id, title string) error {
	if s == nil || s.api == nil {
		return ErrSessionStoreNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrSessionInvalidInput
	}
	if err := s.api.UpdateSession(ctx, id, strings.TrimSpace(title)); err != nil {
		s.logger.Warn("update session failed", zap.String("session_id", id), zap.Error(err))
		return err
	}
	return s.resync(ctx, s.indexOf(id))
}

// DeleteSessions borra de a una (no hay endpoint batch), saca cada sesión
// borrada de la colección local de inmediato y después re-trae la página
// afectada más cercana a la cabeza.
func (s *SessionStore) DeleteSessions(ctx context.Context, ids []string) error {
	if s == nil || s.api == nil {
		return ErrSessionStoreNotConfigured
	}

	var firstErr error
	minIndex := -1
	deleted := 0

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		index := s.indexOf(id)
		if err := s.api.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("delete session failed", zap.String("session_id", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
		if index >= 0 && (minIndex < 0 || index < minIndex) {
			minIndex = index
		}
		s.removeLocal(id)
	}

	if deleted > 0 {
		if err := s.resync(ctx, minIndex); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resync calcula en qué página caería el índice afectado y fuerza su
// refetch. Force pasa por encima de la compuerta de busy: la mutación del
// usuario debe reflejarse aunque haya un fetch de fondo en vuelo.
func (s *SessionStore) resync(ctx context.Context, index int) error {
	page := 1
	if index >= 0 {
		page = index/s.pager.PageSize() + 1
	}
	return s.RequestPage(ctx, page, true)
}

func (s *SessionStore) indexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *SessionStore) removeLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return
		}
	}
}
