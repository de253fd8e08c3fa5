package domain

import "time"

// Títulos y agrupaciones por defecto para sesiones.
const (
	DefaultSessionTitle = "new conversation"

	GroupLast7Days  = "last 7 days"
	GroupLast30Days = "last 30 days"
)

// Session representa un hilo de conversación persistido entre usuario y asistente.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	Group     string    `json:"group,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupFor calcula el bucket de agrupación según la edad de la sesión al
// momento del fetch: "last 7 days", "last 30 days" o "YYYY-MM".
func GroupFor(now, updatedAt time.Time) string {
	age := now.Sub(updatedAt)
	switch {
	case age <= 7*24*time.Hour:
		return GroupLast7Days
	case age <= 30*24*time.Hour:
		return GroupLast30Days
	default:
		return updatedAt.Format("2006-01")
	}
}
