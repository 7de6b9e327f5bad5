package main

import (
	"log"

	"vehicle-vault-api/assistant"
	"vehicle-vault-api/config"
	"vehicle-vault-api/handlers"
	"vehicle-vault-api/realtime"
	"vehicle-vault-api/routes"
	"vehicle-vault-api/services"
	"vehicle-vault-api/session"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize database
	db := config.MustOpenDB(cfg.DatabasePath)

	var store session.RevocationStore = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client, err := session.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠️  %v, token revocation stays in memory", err)
		} else {
			log.Println("✅ Connected to Redis")
			defer client.Close()
			store = session.NewRedisStore(client)
		}
	}

	hub := realtime.NewHub(cfg.CORSOrigin)
	defer hub.Close()

	cars := services.NewCarService(db, nil)
	var completer assistant.Completer
	if cfg.OpenAIKey != "" {
		completer = assistant.NewOpenAICompleter(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}

	h := &handlers.Handler{
		Users:         services.NewUserService(db, cfg.AdminEmail),
		Cars:          cars,
		Notifications: services.NewNotificationService(db, hub),
		Messages:      services.NewMessageService(db, hub),
		Assistant:     assistant.NewService(completer, cars, cfg.AssistantMaxTokens),
		Tokens:        session.NewManager(cfg.JWTSecret, cfg.TokenTTL, store),
		Hub:           hub,
	}

	opts := routes.DefaultOptions()
	opts.CORSOrigin = cfg.CORSOrigin
	opts.MaxBodyBytes = cfg.MaxBodyBytes
	r := routes.NewRouter(h, opts)

	log.Printf("🚗 Vehicle Vault API running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
