package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/ChertChill/otp-service/internal/otp/app"
)

func main() {
	// Load .env if present; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
