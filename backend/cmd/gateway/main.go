package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school_sms/backend/internal/directory"
	"school_sms/backend/internal/gateway"
	"school_sms/backend/internal/gateway/handlers"
	"school_sms/backend/internal/promotion"
	"school_sms/backend/internal/results"
	"school_sms/backend/internal/shared"
)

func main() {
	log.Println("INFO: Starting Promotion Gateway...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	// 1. Load and Validate Configuration
	cfg, err := shared.LoadGatewayConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := shared.ValidateServiceConfig(&cfg.ServiceConfig); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	// 2. Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// 3. Wire the Promotion Engine
	store := directory.NewStore(db)
	source := results.NewSource(db)
	service := promotion.NewService(store, source, store, store, cfg.Promotion)
	promotionHandler := handlers.NewPromotionHandler(service)

	// 4. Setup Routes and Middleware
	router := gateway.SetupRoutes(promotionHandler, cfg)

	// 5. Configure Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: Promotion Gateway listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down Promotion Gateway...")
	log.Println("INFO: Promotion Gateway stopped.")
}
