package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chat-sync/internal/api"
	"chat-sync/internal/config"
	"chat-sync/internal/domain"
	"chat-sync/internal/store"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	client := api.NewClient(cfg.APIBaseURL, logger)

	email, password := cfg.SeedEmail, cfg.SeedPassword
	fmt.Printf("Email [%s]: ", email)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password [default]: ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		password = strings.TrimSpace(line)
	}

	if _, err := client.Login(ctx, email, password); err != nil {
		log.Fatalf("login: %v", err)
	}

	sessionStore := store.NewSessionStore(client, cfg.PageSize, logger)
	chatStore := store.NewChatStore(client, logger)
	chatStore.OnFragment = func(f api.Fragment) {
		if f.Reasoning {
			return
		}
		fmt.Print(f.Text)
	}

	if err := sessionStore.RequestPage(ctx, 1, false); err != nil {
		log.Fatalf("cargar sesiones: %v", err)
	}

	if models, err := client.ListModels(ctx); err == nil && len(models) > 0 {
		chatStore.SetModel(models[0].Name)
	}

	for {
		sessions := sessionStore.Sessions()
		fmt.Println("\n===== Conversaciones =====")
		if len(sessions) == 0 {
			fmt.Println("No hay conversaciones todavía.")
		}
		group := ""
		for i, s := range sessions {
			if s.Group != group {
				group = s.Group
				fmt.Printf("-- %s --\n", group)
			}
			fmt.Printf("[%d] %s\n", i+1, s.Title)
		}
		if sessionStore.HasMore() {
			fmt.Println("[M] Cargar más")
		}
		fmt.Println("[N] Nueva conversación")
		fmt.Println("[R] Renombrar")
		fmt.Println("[D] Borrar")
		fmt.Println("[Q] Salir")
		fmt.Print("Selección: ")

		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch strings.ToUpper(choice) {
		case "Q":
			return
		case "M":
			if err := sessionStore.LoadMore(ctx); err != nil {
				log.Printf("cargar más: %v", err)
			}
		case "N":
			fmt.Print("Título (enter para el default): ")
			title, _ := reader.ReadString('\n')
			session, err := sessionStore.CreateSession(ctx, strings.TrimSpace(title))
			if err != nil {
				log.Printf("crear sesión: %v", err)
				continue
			}
			runChat(ctx, reader, client, chatStore, session)
		case "R":
			session, ok := pickSession(reader, sessions)
			if !ok {
				continue
			}
			fmt.Print("Nuevo título: ")
			title, _ := reader.ReadString('\n')
			if err := sessionStore.UpdateSession(ctx, session.ID, strings.TrimSpace(title)); err != nil {
				log.Printf("renombrar: %v", err)
			}
		case "D":
			ids := pickSessionIDs(reader, sessions)
			if len(ids) == 0 {
				continue
			}
			if err := sessionStore.DeleteSessions(ctx, ids); err != nil {
				log.Printf("borrar: %v", err)
			}
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(sessions) {
				fmt.Println("Selección inválida.")
				continue
			}
			runChat(ctx, reader, client, chatStore, sessions[idx-1])
		}
	}
}

// runChat corre el loop de conversación de una sesión: imprime el
// historial persistido y luego alterna entrada del usuario y respuesta
// en streaming hasta que el usuario escribe /salir.
func runChat(
	ctx context.Context,
	reader *bufio.Reader,
	client *api.Client,
	chatStore *store.ChatStore,
	session domain.Session,
) {
	chatStore.Reset(session.ID)

	fmt.Printf("\n===== %s =====\n", session.Title)
	if history, err := client.ListMessages(ctx, session.ID); err != nil {
		log.Printf("historial: %v", err)
	} else {
		for _, m := range history {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
	}
	fmt.Println("Escribe tu mensaje (/salir para volver, /adjuntar <archivos> para el próximo envío, Ctrl+C aborta la respuesta en curso).")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "/salir") {
			return
		}
		if rest, ok := strings.CutPrefix(line, "/adjuntar"); ok && (rest == "" || strings.HasPrefix(rest, " ")) {
			chatStore.SetFiles(strings.Fields(rest))
			fmt.Println("Adjuntos fijados para el próximo envío.")
			continue
		}

		if err := streamMessage(ctx, chatStore, line); err != nil {
			log.Printf("enviar: %v", err)
			continue
		}
		fmt.Println()
	}
}

// streamMessage envía un mensaje bloqueando hasta el estado terminal.
// Mientras el stream corre, Ctrl+C lo aborta conservando el texto parcial
// en vez de matar el proceso.
func streamMessage(ctx context.Context, chatStore *store.ChatStore, content string) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-interrupt:
			fmt.Println("\n[abortado: se conserva el texto parcial]")
			chatStore.Abort()
		case <-done:
		}
	}()
	defer func() {
		signal.Stop(interrupt)
		close(done)
	}()

	return chatStore.Send(ctx, content)
}

func pickSession(reader *bufio.Reader, sessions []domain.Session) (domain.Session, bool) {
	fmt.Print("Número de conversación: ")
	choice, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(sessions) {
		fmt.Println("Selección inválida.")
		return domain.Session{}, false
	}
	return sessions[idx-1], true
}

func pickSessionIDs(reader *bufio.Reader, sessions []domain.Session) []string {
	fmt.Print("Números a borrar (separados por coma): ")
	choice, _ := reader.ReadString('\n')
	var ids []string
	for _, part := range strings.Split(choice, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 1 || idx > len(sessions) {
			fmt.Println("Selección inválida:", strings.TrimSpace(part))
			return nil
		}
		ids = append(ids, sessions[idx-1].ID)
	}
	return ids
}
