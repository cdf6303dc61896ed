package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fiorella/internal/app"
	"fiorella/internal/config"
)

func main() {
	configFile := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database, image root, event broker and routes ---
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Fiber.Listen(cfg.App.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := application.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
