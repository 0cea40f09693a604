// Package server is the synchronization layer: it resolves identity, validates input and
// composes the concepts for every HTTP route.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "strider/docs" // swagger docs
	"strider/internal/bootstrap"
	"strider/internal/concepts/authing"
	"strider/internal/concepts/autocaptioning"
	"strider/internal/concepts/commenting"
	"strider/internal/concepts/friending"
	"strider/internal/concepts/posting"
	"strider/internal/concepts/sessioning"
	"strider/internal/config"
	"strider/internal/database"
	"strider/internal/featureflags"
	"strider/internal/inference"
	"strider/internal/middleware"
	"strider/internal/models"
	"strider/internal/notifications"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	hashCost       int

	users    *authing.Concept
	sessions *sessioning.Concept
	posts    *posting.Concept
	comments *commenting.Concept
	friends  *friending.Concept
	captions *autocaptioning.Concept

	captioner    inference.CaptionGenerator
	notifier     *notifications.Notifier
	featureFlags *featureflags.Manager
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithCaptioner replaces the configured caption generator.
func WithCaptioner(gen inference.CaptionGenerator) Option {
	return func(s *Server) { s.captioner = gen }
}

// WithPasswordHashCost sets the bcrypt cost for new passwords.
func WithPasswordHashCost(cost int) Option {
	return func(s *Server) { s.hashCost = cost }
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts ...Option) *Server {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		promMiddleware: middleware.InitMetrics("strider-api"),
		hashCost:       bcrypt.DefaultCost,
		notifier:       notifications.NewNotifier(rdb),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.captioner == nil {
		s.captioner = bootstrap.NewCaptioner(cfg)
	}

	s.users = authing.New(db, rdb, authing.WithHashCost(s.hashCost))
	s.sessions = sessioning.New(rdb, []byte(cfg.SessionSecret), cfg.SessionTTL())
	s.posts = posting.New(db)
	s.comments = commenting.New(db)
	s.friends = friending.New(db)
	s.captions = autocaptioning.New(db)
	return s
}

// App builds the Fiber application with middleware and the full route table.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := s.config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 12
	}
	app := fiber.New(fiber.Config{
		AppName:      "Strider API",
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler maps concept errors to transport statuses. Unknown errors become 500s
// without leaking their text.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	var fiberErr *fiber.Error
	if !errors.As(err, &appErr) && !errors.As(err, &fiberErr) {
		err = models.NewInternalError(err)
	}

	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "route failed",
			slog.String("route", c.Method()+" "+c.Route().Path),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))
}

// SetupRoutes registers probes, metrics, docs and every route of the route table under /api.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Strider Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	for _, r := range s.Routes() {
		api.Add(r.Method, r.Path, s.chain(r)...)
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil || database.Ping(ctx, s.db) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, then closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("close database: %w", cerr))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
