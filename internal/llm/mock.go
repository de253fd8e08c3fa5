package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response   string
	Err        error
	LastPrompt string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	return m.Response, m.Err
}

// EchoClient genera una respuesta determinística a partir del último turno
// del prompt. Lo usa el servidor de referencia cuando no hay LLM_API_KEY.
type EchoClient struct{}

func (EchoClient) Generate(_ context.Context, prompt string) (string, error) {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := lines[len(lines)-1]
	last = strings.TrimPrefix(last, "user: ")
	return fmt.Sprintf("You said: %s. This is a canned reply from the reference backend.", last), nil
}
