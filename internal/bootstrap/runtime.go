// Package bootstrap wires the process-level dependencies every binary needs.
package bootstrap

import (
	"fmt"
	"log/slog"

	"strider/internal/cache"
	"strider/internal/config"
	"strider/internal/database"
	"strider/internal/inference"
	"strider/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. Redis holds sessions, so an
// unreachable server is fatal.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := cache.InitRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return db, rdb, nil
}

// NewCaptioner builds the configured caption generator, instrumented for metrics and tracing.
func NewCaptioner(cfg *config.Config) inference.CaptionGenerator {
	switch cfg.CaptionProvider {
	case "stub":
		middleware.Logger.Warn("using stub caption generator", slog.String("env", cfg.Env))
		return inference.Instrument(&inference.StubGenerator{Caption: "a photo"}, "stub", middleware.Logger)
	default:
		client := inference.NewHuggingFaceClient(inference.HuggingFaceConfig{
			Endpoint: cfg.CaptionEndpoint,
			Model:    cfg.CaptionModel,
			Token:    cfg.HuggingFaceAPIToken,
			Timeout:  cfg.CaptionTimeout(),
		})
		return inference.Instrument(client, "huggingface", middleware.Logger)
	}
}
