package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "vehicle_vault_dev_secret_change_me"

type Config struct {
	Port         string
	GinMode      string
	DatabasePath string
	CORSOrigin   string
	MaxBodyBytes int64

	JWTSecret  []byte
	TokenTTL   time.Duration
	AdminEmail string

	OpenAIKey          string
	OpenAIModel        string
	OpenAIBaseURL      string
	AssistantMaxTokens int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  could not read .env: %v", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3001"),
		GinMode:            os.Getenv("GIN_MODE"),
		DatabasePath:       getEnv("DATABASE_PATH", "vehicle_vault.db"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 50<<20)),
		JWTSecret:          []byte(getEnv("JWT_SECRET", devJWTSecret)),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmail:         strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		AssistantMaxTokens: getEnvInt("ASSISTANT_MAX_TOKENS", 500),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
	}

	if string(cfg.JWTSecret) == devJWTSecret {
		log.Println("⚠️  JWT_SECRET not set, using development secret")
	}
	if cfg.OpenAIKey == "" {
		log.Println("⚠️  OPENAI_API_KEY not set, assistant endpoints will return 503")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
