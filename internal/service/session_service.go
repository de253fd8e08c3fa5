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

// SessionService encapsula la lógica de sesiones del servidor de
// referencia: defaults, paginación y chequeo de pertenencia.
type SessionService struct {
	repo repository.SessionRepository
}

var (
	ErrSessionServiceNotConfigured = errors.New("session service not configured")
	ErrSessionNotOwned             = errors.New("session not owned by user")
)

const (
	minPageSize = 1
	maxPageSize = 100
)

func NewSessionService(repo repository.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Create registra una sesión nueva con título default si viene vacío.
func (s *SessionService) Create(ctx context.Context, userID, title string) (domain.Session, error) {
	if s == nil || s.repo == nil {
		return domain.Session{}, ErrSessionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Session{}, ErrSessionNotOwned
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// List devuelve una página de sesiones del usuario, más nuevas primero.
func (s *SessionService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, error) {
	if s == nil || s.repo == nil {
		return nil, ErrSessionServiceNotConfigured
	}
	if page < 1 {
		page = 1
	}
	if pageSize < minPageSize {
		pageSize = 25
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	sessions, err := s.repo.List(ctx, strings.TrimSpace(userID), page, pageSize)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

// Rename cambia el título de una sesión del usuario. El rename también
// mueve la sesión al frente del orden por updated_at.
func (s *SessionService) Rename(ctx context.Context, userID, id, title string) (domain.Session, error) {
	if s == nil || s.repo == nil {
		return domain.Session{}, ErrSessionServiceNotConfigured
	}
	session, err := s.owned(ctx, userID, id)
	if err != nil {
		return domain.Session{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	session.Title = title
	session.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Delete borra una sesión del usuario.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	if s == nil || s.repo == nil {
		return ErrSessionServiceNotConfigured
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *SessionService) owned(ctx context.Context, userID, id string) (domain.Session, error) {
	session, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Session{}, err
	}
	if session.UserID != strings.TrimSpace(userID) {
		return domain.Session{}, ErrSessionNotOwned
	}
	return session, nil
}
