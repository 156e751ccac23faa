package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/scraprecon/internal/ai"
	"github.com/xelth-com/scraprecon/internal/bootstrap"
	"github.com/xelth-com/scraprecon/internal/buildinfo"
	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/handlers"
	"github.com/xelth-com/scraprecon/internal/reference"
	"github.com/xelth-com/scraprecon/internal/services/recon"
	"github.com/xelth-com/scraprecon/internal/utils"
	"github.com/xelth-com/scraprecon/internal/websocket"
)

func main() {
	log := config.GetLogger()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ConfigureLogger(cfg)
	log.Infof("🏗️ scraprecon %s", buildinfo.Version())

	// 2. Storage (database, lot counters, record store)
	backend, err := bootstrap.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	// Note: backend.Close() is called manually in shutdown handler below

	// 3. Optional vision extractor
	var extractor ai.Extractor
	var gemini *ai.GeminiClient
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err = ai.NewGeminiClient(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			log.Warnf("⚠️ Vision: Failed to init Gemini client: %v", err)
		} else {
			extractor = ai.NewGeminiExtractor(gemini)
			log.Infof("✅ Vision: Gemini %s ready", cfg.AI.GeminiModel)
		}
	} else {
		log.Info("ℹ️ Vision: GEMINI_API_KEY not set, photo extraction disabled")
	}

	// 4. Live feed + service
	hub := websocket.NewHub()
	go hub.Run()

	svc := recon.NewService(backend.Store, backend.Lots, extractor, hub)

	if cfg.Reference.File != "" {
		table, err := reference.LoadFile(cfg.Reference.File, reference.Options{RequireDescription: cfg.Reference.RequireDescription})
		if err != nil {
			log.Warnf("⚠️ Reference preload failed: %v", err)
		} else {
			svc.SetReference(table)
		}
	}

	// 5. Set up HTTP router
	router, err := handlers.NewRouter(cfg, svc, hub)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Infof("🚀 Server starting on port %s [records: %s, lots: %s]", cfg.Port, cfg.RecordBackend(), backend.LotsKind)
		for _, u := range utils.LANURLs(cfg.Port) {
			log.Infof("📱 Reachable at %s", u)
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Warnf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	hub.Stop()
	if gemini != nil {
		gemini.Close()
	}

	// Close storage (this also stops embedded PostgreSQL)
	log.Info("🛑 Closing storage...")
	if err := backend.Close(); err != nil {
		log.Errorf("Storage close error: %v", err)
	}

	log.Info("✅ Shutdown complete")
}
