package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"bm-banbot/battlemetrics"
	"bm-banbot/bot"
	"bm-banbot/config"
	"bm-banbot/handlers"
	"bm-banbot/utils"
	"bm-banbot/utils/database/audit"

	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env", ".env", "path to a .env file to load before reading the environment")
	configFile := pflag.String("config", "", "optional YAML, JSON or TOML config file")
	pflag.Parse()

	cfg, err := config.Load(*envFile, *configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Error opening log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	client := battlemetrics.NewClient(cfg.BattleMetrics, utils.GlobalHTTPClient)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = client.Validate(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Error validating BattleMetrics credentials: %v", err)
	}
	log.Println("BattleMetrics credentials validated.")

	db, err := audit.Init(cfg.AuditDBPath)
	if err != nil {
		log.Fatalf("Error initializing audit database: %v", err)
	}

	b, err := bot.New(cfg, db, client)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}
	defer b.Close()

	handlers.Register(b)

	if err := b.Run(); err != nil {
		log.Printf("Error running bot: %v", err)
	}
}
