package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"quiz-rag/internal/config"
	"quiz-rag/internal/database"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

func main() {
	dir := database.Up
	if len(os.Args) > 1 {
		dir = database.Direction(os.Args[1])
	}
	if dir != database.Up && dir != database.Down {
		fmt.Fprintf(os.Stderr, "usage: %s [up|down]\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	if cfg.DB.Driver == "" {
		l.Fatal("db.driver is empty, nothing to migrate")
	}

	if err := database.Migrate(context.Background(), cfg, dir); err != nil {
		l.Fatal("Failed to run migrations", zap.String("direction", string(dir)), zap.Error(err))
	}
}
