package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"PulseFeed/internal/di"
	"PulseFeed/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envPath := flag.String("env", "", ".env file path (optional)")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Fatalf("env load failed: %v", err)
		}
	} else {
		// best effort: a .env in the working directory is picked up if present
		_ = godotenv.Load()
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s archive=%s assets=%v", cfg.Environment, cfg.Archive.Type, cfg.Snapshots.Assets)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
