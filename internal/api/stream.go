package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatRequest es el cuerpo del envío de chat en streaming.
type ChatRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"session_id,omitempty"`
	ModelName string   `json:"model_name,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// Fragment es un pedazo incremental de texto del asistente. Reasoning marca
// fragmentos de razonamiento que se acumulan aparte del contenido visible.
type Fragment struct {
	Reasoning bool
	Text      string
}

const doneSentinel = "[DONE]"

var (
	// ErrStreamStatus indica que el endpoint de stream respondió con error HTTP.
	ErrStreamStatus = errors.New("stream http error")
	// ErrStreamFailed indica que el servidor reportó una falla de generación
	// dentro del stream (evento error). El texto del evento no es contenido
	// del asistente y nunca se entrega como fragmento.
	ErrStreamFailed = errors.New("stream failed")
)

// StreamChat envía un mensaje y consume la respuesta como stream de
// fragmentos de texto, invocando onFragment por cada uno. El contexto
// cancela el stream en curso; el texto parcial ya entregado se conserva
// del lado del llamador.
func (c *Client) StreamChat(ctx context.Context, chatReq ChatRequest, onFragment func(Fragment)) error {
	raw, err := json.Marshal(chatReq)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Sin timeout global: un stream puede durar más que cualquier request
	// normal; el contexto es el único límite.
	streamClient := &http.Client{Transport: c.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status=%d %s", ErrStreamStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	parser := newFragmentParser()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			fragments, done, feedErr := parser.Feed(buf[:n])
			for _, f := range fragments {
				if onFragment != nil {
					onFragment(f)
				}
			}
			if feedErr != nil {
				return feedErr
			}
			if done {
				return nil
			}
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(readErr, io.EOF) {
				// Stream cerrado sin [DONE]: lo tratamos como fin normal.
				return nil
			}
			return fmt.Errorf("read stream: %w", readErr)
		}
	}
}

// fragmentParser es el parser incremental del stream: acumula bytes,
// separa líneas completas y arrastra el resto hasta el próximo chunk, de
// modo que cortes de chunk truncados o pegados no pierdan fragmentos.
type fragmentParser struct {
	buf     []byte
	event   string
	data    []string
	hasData bool
}

func newFragmentParser() *fragmentParser {
	return &fragmentParser{}
}

// Feed procesa un chunk y devuelve los fragmentos completos que cerró,
// un flag de terminación cuando llega el centinela [DONE], y un error
// cuando el servidor despacha un evento error.
func (p *fragmentParser) Feed(chunk []byte) ([]Fragment, bool, error) {
	p.buf = append(p.buf, chunk...)

	var out []Fragment
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			return out, false, nil
		}
		line := string(bytes.TrimSuffix(p.buf[:idx], []byte("\r")))
		p.buf = p.buf[idx+1:]

		frag, emitted, done, err := p.consumeLine(line)
		if err != nil {
			return out, false, err
		}
		if done {
			return out, true, nil
		}
		if emitted {
			out = append(out, frag)
		}
	}
}

func (p *fragmentParser) consumeLine(line string) (Fragment, bool, bool, error) {
	switch {
	case line == "":
		// Línea en blanco: despacha el evento acumulado.
		if !p.hasData {
			p.event = ""
			return Fragment{}, false, false, nil
		}
		text := strings.Join(p.data, "\n")
		event := p.event
		p.event = ""
		p.data = nil
		p.hasData = false
		if event == "error" {
			return Fragment{}, false, false, fmt.Errorf("%w: %s", ErrStreamFailed, text)
		}
		if text == doneSentinel {
			return Fragment{}, false, true, nil
		}
		return Fragment{Reasoning: event == "reasoning", Text: text}, true, false, nil

	case strings.HasPrefix(line, ":"):
		// Comentario SSE (keepalive): se ignora.
		return Fragment{}, false, false, nil

	case strings.HasPrefix(line, "event:"):
		p.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		return Fragment{}, false, false, nil

	case strings.HasPrefix(line, "data:"):
		value := strings.TrimPrefix(line, "data:")
		// El protocolo descarta exactamente un espacio tras el separador;
		// el resto del fragmento se conserva tal cual.
		value = strings.TrimPrefix(value, " ")
		p.data = append(p.data, value)
		p.hasData = true
		return Fragment{}, false, false, nil

	default:
		return Fragment{}, false, false, nil
	}
}
