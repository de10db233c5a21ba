package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwise/internal/config"
	"inkwise/internal/database"
	"inkwise/internal/handlers"
	"inkwise/internal/middleware"
	"inkwise/internal/repository"
	"inkwise/internal/router"
	"inkwise/internal/services"
	"inkwise/internal/websocket"
)

func main() {
	log.Println("🚀 Starting InkWise server...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	if geminiService.Configured() {
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
	} else {
		log.Println("✗ Gemini NOT configured, replies will explain how to set GEMINI_API_KEY")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, &middleware.RedisRevocations{Client: redisClients.Cache})
	authService := services.NewAuthService(userRepo, jwtAuth)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, cfg.Env == "production")
	chatHandler := handlers.NewChatHandler(chatRepo, geminiService, wsHub)
	pageHandler := handlers.NewPageHandler(authService, chatRepo)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRequestsPerMin, time.Minute)
	defer authLimiter.Stop()

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authLimiter,
		authHandler,
		chatHandler,
		pageHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ InkWise ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
