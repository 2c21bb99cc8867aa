// Donation payments service
//
// This is the main entry point for the donation backend.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/caiorafaeldop/colab-ongs-backend/config"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/api"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/donation"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/platform/mercadopago"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/platform/notify"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("Starting donation service...")

	// Load .env into os.Environ (absent in production, that's fine)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Printf("Configuration loaded: Port=%s, Database=%s", cfg.Server.Port, cfg.Database.Path)

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure layer
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	donationRepo := storage.NewDonationRepository(db)
	eventRepo := storage.NewWebhookEventRepository(db)

	gateway, err := mercadopago.NewAdapter(
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.BackURLBase,
		cfg.MercadoPago.NotificationURL,
		cfg.MercadoPago.Currency,
	)
	if err != nil {
		log.Fatalf("Payment gateway error: %v", err)
	}
	notifier := notify.NewClient(cfg.Notify.BaseURL, cfg.Notify.APIKey)

	// Service layer
	donationService := donation.NewService(donationRepo, eventRepo, gateway, notifier)

	// API layer
	handler := api.NewHandler(donationService, mercadopago.NewWebhookValidator(), cfg.MercadoPago.WebhookSecret)
	router := api.SetupRouter(handler, cfg.Server.GinMode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.MercadoPago.AccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN is required")
	}
	if cfg.MercadoPago.WebhookSecret == "" {
		log.Println("Warning: MP_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}
	if cfg.Notify.BaseURL == "" {
		log.Println("Warning: NOTIFY_BASE_URL not set, status notifications disabled")
	}
	return nil
}
