package store

import (
	"strings"
	"time"

	"chat-sync/internal/api"
	"chat-sync/internal/domain"
)

// NormalizeSession mapea un registro crudo del servidor, con nombres de
// campos inconsistentes, a la forma canónica. Es pura e idempotente:
// normalizar un registro ya normalizado devuelve el mismo registro.
func NormalizeSession(raw api.SessionRecord, now time.Time) domain.Session {
	id := raw.ID
	if id == "" {
		id = raw.SessionID
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.SessionTitle)
	}
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	preview := raw.Preview
	if preview == "" {
		preview = raw.Content
	}

	updatedAt := raw.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = raw.CreatedAt
	}

	icon := raw.Icon
	if icon == "" {
		icon = defaultSessionIcon
	}

	return domain.Session{
		ID:        id,
		UserID:    raw.UserID,
		Title:     title,
		Preview:   preview,
		Icon:      icon,
		Group:     domain.GroupFor(now, updatedAt),
		CreatedAt: raw.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Referencia decorativa usada cuando el servidor no manda ícono.
const defaultSessionIcon = "chat-bubble"

// NormalizeSessions aplica NormalizeSession preservando el orden del servidor.
func NormalizeSessions(raw []api.SessionRecord, now time.Time) []domain.Session {
	out := make([]domain.Session, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeSession(r, now))
	}
	return out
}
