package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SurajPadalkar17/Kids-Paradise/internal/config"
	"github.com/SurajPadalkar17/Kids-Paradise/internal/gemini"
	internalhttp "github.com/SurajPadalkar17/Kids-Paradise/internal/http"
	"github.com/SurajPadalkar17/Kids-Paradise/internal/identity"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Missing credentials degrade the affected routes instead of blocking
	// startup; the handlers answer with a configuration error.
	if cfg.GeminiAPIKey == "" {
		log.Printf("warning: GEMINI_API_KEY not set, content generation disabled")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		log.Printf("warning: Supabase credentials not set, registration disabled")
	}

	ai := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiTimeout)
	identitySvc := identity.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.IdentityTimeout)
	server := internalhttp.NewServer(cfg, identitySvc, ai)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("kidlit-backend listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
