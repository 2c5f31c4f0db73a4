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

	"parla-backend/internal/config"
	"parla-backend/internal/database"
	"parla-backend/internal/handlers"
	"parla-backend/internal/router"
	"parla-backend/internal/session"
	"parla-backend/internal/websocket"
	"parla-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Parla Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Session Store ────
	store := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	log.Printf("✓ Session store initialized (TTL %dm)", cfg.SessionTTLMinutes)

	// ──── Step 4: Start Send Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, store, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, store)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	sessionHandler := handlers.NewSessionHandler(cfg, redisClients.Queue, store)
	r := router.New(sessionHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Parla Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
