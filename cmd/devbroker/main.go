package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/client/config"
	"github.com/studyhub/client/internal/auth"
	"github.com/studyhub/client/internal/cache"
	"github.com/studyhub/client/internal/devbroker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to Redis (optional: without it presence stays per-instance)
	redis, err := cache.NewRedisClient(cfg.Broker.RedisAddr, cfg.Broker.RedisPassword, cfg.Broker.RedisDB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - presence is local to this instance")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Broker.JWTSecret, cfg.Broker.JWTExpiryHours)
	store := devbroker.NewStore()

	hub := devbroker.NewHub(store, redis)
	go hub.Run()

	handler := devbroker.NewHandler(hub, store, jwtService, cfg.Broker.MessagesPerSecond, cfg.Broker.AllowedOrigins)

	// Setup Gin router
	if cfg.Broker.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler.Routes(router)

	addr := ":" + cfg.Broker.Port
	log.Printf("Starting StudyHub dev broker on %s (env: %s)", addr, cfg.Broker.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start broker: %v", err)
	}
}
