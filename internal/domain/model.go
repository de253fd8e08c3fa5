package domain

// Model describe un modelo de chat disponible para el widget de selección.
// El core solo depende de los campos de display.
type Model struct {
	Name  string `json:"model_name"`
	Label string `json:"label,omitempty"`
}
