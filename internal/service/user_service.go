package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"chat-sync/internal/domain"
	"chat-sync/internal/repository"
)

// UserService maneja registro y autenticación de usuarios del servidor de
// referencia.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

var (
	ErrUserServiceNotConfigured = errors.New("user service not configured")
	ErrInvalidEmail             = errors.New("invalid email")
	ErrInvalidCredentials       = errors.New("invalid credentials")
)

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{logger: logger, users: users}
}

// Register crea un usuario con password hasheado. Si el email ya existe,
// devuelve el usuario existente sin tocarlo (comportamiento de seed).
func (s *UserService) Register(ctx context.Context, email, displayName, password string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, ErrInvalidEmail
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate valida email+password contra el hash almacenado.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
