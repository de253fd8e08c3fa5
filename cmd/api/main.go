package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chat-sync/internal/config"
	"chat-sync/internal/db"
	"chat-sync/internal/domain"
	apihttp "chat-sync/internal/http"
	"chat-sync/internal/llm"
	"chat-sync/internal/repository"
	"chat-sync/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Sin DATABASE_URL el servidor corre con repositorios en memoria, que
	// alcanza para desarrollo local del cliente.
	var (
		userRepo    repository.UserRepository    = repository.NewMemoryUserRepository()
		sessionRepo repository.SessionRepository = repository.NewMemorySessionRepository()
		messageRepo repository.MessageRepository = repository.NewMemoryMessageRepository()
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		userRepo = repository.NewPgUserRepository(pool)
		sessionRepo = repository.NewPgSessionRepository(pool)
		messageRepo = repository.NewPgMessageRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
	}

	var llmClient llm.LLMClient = llm.EchoClient{}
	if cfg.LLMAPIKey != "" {
		llmClient = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	} else {
		logger.Warn("LLM_API_KEY not set, using canned replies")
	}

	var (
		limiter    service.StreamRateLimiter = service.NewStreamRateLimiter(time.Minute, 20)
		tokenStore service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisStreamRateLimiter(redisClient, time.Minute, 20)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	userSvc := service.NewUserService(logger, userRepo)
	sessionSvc := service.NewSessionService(sessionRepo)
	messageSvc := service.NewMessageService(messageRepo)
	chatSvc := service.NewChatService(logger, llmClient, sessionRepo, messageSvc)

	if _, err := userSvc.Register(ctx, cfg.SeedEmail, "Dev User", cfg.SeedPassword); err != nil {
		logger.Warn("seed user failed", zap.Error(err))
	}

	models := make([]domain.Model, 0, len(cfg.ChatModels))
	for _, name := range cfg.ChatModels {
		models = append(models, domain.Model{Name: name, Label: name})
	}

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	sessionHandler := apihttp.NewSessionHandler(logger, sessionSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc, limiter, models)
	router := apihttp.NewRouter(logger, jwtSvc, authHandler, sessionHandler, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
