package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chat-sync/internal/domain"
)

// SessionRecord refleja el payload heterogéneo del backend de sesiones:
// los nombres de campos varían entre despliegues (id vs session_id,
// title vs sessionTitle, updated_at vs created_at).
type SessionRecord struct {
	ID           string    `json:"id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	SessionTitle string    `json:"sessionTitle,omitempty"`
	Preview      string    `json:"preview,omitempty"`
	Content      string    `json:"content,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// TokenPair es la respuesta del servicio de login/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Client habla con el backend REST de sesiones, modelos y chat.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu    sync.Mutex
	token string
}

// NewClient construye un cliente apuntando al backend de conversaciones.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// SetToken fija el access token usado en el header Authorization.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Login autentica contra el servicio de tokens y retiene el access token.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &pair); err != nil {
		return TokenPair{}, err
	}
	c.SetToken(pair.AccessToken)
	return pair, nil
}

// Refresh intercambia un refresh token por un nuevo par de tokens.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, &pair); err != nil {
		return TokenPair{}, err
	}
	c.SetToken(pair.AccessToken)
	return pair, nil
}

// ListSessions trae una página de la lista de sesiones ordenada por el
// servidor (página 1 = más recientes).
func (c *Client) ListSessions(ctx context.Context, page, pageSize int) ([]SessionRecord, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out struct {
		Data []SessionRecord `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/sessions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateSession crea una sesión nueva; la sesión solo existe de forma
// durable cuando el backend confirma.
func (c *Client) CreateSession(ctx context.Context, title string) (SessionRecord, error) {
	body := map[string]string{"title": title}
	var out struct {
		Data SessionRecord `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &out); err != nil {
		return SessionRecord{}, err
	}
	return out.Data, nil
}

// UpdateSession renombra una sesión existente.
func (c *Client) UpdateSession(ctx context.Context, id, title string) error {
	body := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPut, "/sessions/"+url.PathEscape(id), body, nil)
}

// DeleteSession borra una sola sesión. No hay endpoint batch: el store
// itera borrados individuales.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// ListMessages trae el historial persistido de una sesión, en orden
// cronológico.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var out struct {
		Data []domain.Message `json:"data"`
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListModels trae los modelos disponibles para el widget de selección.
func (c *Client) ListModels(ctx context.Context) ([]domain.Model, error) {
	var out struct {
		Data []domain.Model `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("api error: status=%d %s", resp.StatusCode, apiErr.Error)
		}
		c.logger.Warn("api http error", zap.Int("status", resp.StatusCode), zap.String("path", path))
		return fmt.Errorf("api http error: status=%d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
