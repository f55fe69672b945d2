package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/prodfilter/backend/config"
	httpDelivery "github.com/prodfilter/backend/internal/delivery/http"
	"github.com/prodfilter/backend/internal/infrastructure/storage"
	"github.com/prodfilter/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ProdFilter Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage Type: %s", cfg.Storage.Type)

	// Initialize infrastructure dependencies
	backend, err := storage.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()

	// Initialize usecase layer
	filterService := usecase.NewFilterService(
		backend.Source,
		backend.Sink,
		usecase.FilterServiceConfig{
			SourceTable:        cfg.Table.Source,
			ResultPolicy:       cfg.Table.ResultPolicy,
			ResultName:         cfg.Table.ResultName,
			EnableDebugLogging: cfg.Server.Environment == "development",
		},
	)

	log.Printf("Table: source=%q, result policy=%s, result name=%q, rate limit=%d/min per IP",
		cfg.Table.Source,
		cfg.Table.ResultPolicy,
		cfg.Table.ResultName,
		cfg.RateLimit.PerIP)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(filterService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("[SERVER] Listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
