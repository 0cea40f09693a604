// Command migrate creates or updates the document tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"strider/internal/config"
	"strider/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|ping>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Printf("schema up to date (%d tables)", len(database.PersistentModels()))
	case "ping":
		if err := database.Ping(ctx, db); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		log.Printf("database reachable (driver=%s)", cfg.DBDriver)
	default:
		return usage()
	}
	return nil
}
