package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio y del cliente.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL"`
	JWTSecret   string   `env:"JWT_SECRET" envDefault:"dev-only-secret"`
	ChatModels  []string `env:"CHAT_MODELS" envDefault:"gpt-5.1" envSeparator:","`

	JWTAccessTTLMinutes  int `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-5.1"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Lado cliente (cmd/cli_chat).
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	PageSize   int    `env:"PAGE_SIZE" envDefault:"25"`

	// Usuario sembrado por el servidor de referencia.
	SeedEmail    string `env:"SEED_EMAIL" envDefault:"dev@example.com"`
	SeedPassword string `env:"SEED_PASSWORD" envDefault:"devpassword"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
