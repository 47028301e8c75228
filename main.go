package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/server"
	"github.com/room4-2/arka/session"
	"github.com/room4-2/arka/upstream"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	opener, err := upstream.NewOpener(cfg)
	if err != nil {
		log.Fatalf("Failed to prepare upstream: %v", err)
	}

	if cfg.UpstreamProvider != config.ProviderMock && !cfg.HasHumeCredentials() && cfg.GeminiAPIKey == "" {
		log.Println("⚠️ No provider credentials configured, every session will use the mock responder")
	}

	sessionManager := session.NewManager(cfg, opener.Open)

	// Start cleanup routine
	ctx, cancel := context.WithCancel(context.Background())
	go sessionManager.StartCleanupRoutine(ctx)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	srv := server.NewServer(cfg, sessionManager)

	go func() {
		<-sigChan
		log.Println("\nReceived shutdown signal...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
