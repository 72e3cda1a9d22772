package main

import (
	"log"

	"github.com/aussiebroadwan/tabgate/internal/gateway/app"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; environment always wins.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
