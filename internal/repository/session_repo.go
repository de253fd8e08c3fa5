package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-sync/internal/domain"
)

// ErrNotFound se devuelve cuando la entidad no existe.
var ErrNotFound = errors.New("not found")

// SessionRepository define el contrato de persistencia para sesiones de
// conversación. List pagina de más nueva a más vieja por updated_at.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, error)
	Update(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id, preview string, when time.Time) error
}

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO sessions (id, user_id, title, preview, icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.Preview,
		session.Icon,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, title, preview, icon, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Preview,
		&session.Icon,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	return session, err
}

func (r *PgSessionRepository) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, error) {
	const query = `
		SELECT id, user_id, title, preview, icon, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	offset := (page - 1) * pageSize
	rows, err := r.pool.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Preview, &s.Icon, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PgSessionRepository) Update(ctx context.Context, session domain.Session) error {
	const query = `
		UPDATE sessions
		SET title = $2, preview = $3, icon = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		session.ID,
		session.Title,
		session.Preview,
		session.Icon,
		session.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgSessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgSessionRepository) Touch(ctx context.Context, id, preview string, when time.Time) error {
	const query = `
		UPDATE sessions
		SET preview = $2, updated_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, preview, when)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
