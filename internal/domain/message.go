package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message es un mensaje dentro de una sesión. Content y Reasoning son
// mutables mientras el stream está activo; Loading y Typing son flags
// transitorios de UI que no deben quedar encendidos en estado terminal.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Loading   bool      `json:"-"`
	Typing    bool      `json:"-"`
}
