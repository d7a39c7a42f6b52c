package main

import (
	"fmt"
	"log"
	"os"

	"github.com/labelcheck/backend/config"
	httpDelivery "github.com/labelcheck/backend/internal/delivery/http"
	"github.com/labelcheck/backend/internal/infrastructure/ocrspace"
	"github.com/labelcheck/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting LabelCheck Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Upload limit: %d bytes", cfg.Upload.MaxBytes)

	// Initialize infrastructure dependencies
	ocrClient := ocrspace.NewClient(cfg.OCR.APIKey, cfg.OCR.BaseURL, cfg.OCR.Engine)

	// Enable debug mode in development environment
	debug := cfg.Server.Environment == "development"
	if debug {
		ocrClient.SetDebug(true)
		log.Printf("OCR client debug mode enabled")
	}

	if len(cfg.OCR.APIKey) >= 4 {
		log.Printf("OCR API configured: %s engine=%s (key: %s...)", cfg.OCR.BaseURL, cfg.OCR.Engine, cfg.OCR.APIKey[:4])
	} else {
		log.Printf("OCR API configured: %s engine=%s", cfg.OCR.BaseURL, cfg.OCR.Engine)
	}

	// Initialize usecase layer
	verificationService := usecase.NewVerificationService(ocrClient, debug)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(verificationService, cfg.Upload.MaxBytes)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
