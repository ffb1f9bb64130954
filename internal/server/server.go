// Package server contains the HTTP handlers of the internal userdata API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"userdata/internal/cache"
	"userdata/internal/config"
	"userdata/internal/database"
	"userdata/internal/middleware"
	"userdata/internal/models"
	"userdata/internal/repository"
	"userdata/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	logger         *slog.Logger
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	rateLimiter    *middleware.RateLimiter
	userService    *service.UserService
	friendService  *service.FriendService
	friends        *FriendsHandler
}

// NewServer connects to the database and Redis and builds a server on top.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.Connect(ctx, cfg.RedisURL, logger), logger)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case rate limits are not enforced.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = middleware.Logger
	}

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		logger:         logger,
		promMiddleware: middleware.InitMetrics("niffler-userdata"),
		rateLimiter:    middleware.NewRateLimiter(redisClient, redisClient != nil, logger),
		userService:    service.NewUserService(userRepo, friendRepo),
		friendService:  service.NewFriendService(friendRepo, userRepo),
	}
	s.friends = NewFriendsHandler(s.userService, logger, s.pageable())
	return s, nil
}

// UserService exposes the user service so other entry points (the users
// topic consumer) share the server's repositories.
func (s *Server) UserService() *service.UserService {
	return s.userService
}

func (s *Server) pageable() PageableDefaults {
	d := DefaultPageable
	if s.config.PageDefaultSize > 0 {
		d.Size = s.config.PageDefaultSize
	}
	if s.config.PageMaxSize > 0 {
		d.MaxSize = s.config.PageMaxSize
	}
	return d
}

// ErrorHandler maps handler errors to the JSON error response.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := models.StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request error", slog.String("error", err.Error()))
		}
		return models.RespondWithError(c, status, err)
	}
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "niffler-userdata",
		ErrorHandler: ErrorHandler(s.logger),
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing first so the trace id is in locals for ContextMiddleware.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger(s.logger))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://127.0.0.1:3000,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       86400,
	}))

	// Callers are other niffler services, so the per-IP budget is generous.
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	v3 := app.Group("/internal/v3")

	s.friends.Register(v3)
	v3.Delete("/friends/remove", s.RemoveFriend)

	users := v3.Group("/users")
	users.Get("/current", s.CurrentUser)
	users.Post("/update", s.UpdateUser)
	users.Get("/all", s.AllUsers)

	invitations := v3.Group("/invitations")
	invitations.Post("/send",
		s.rateLimiter.Limit(30, time.Minute, "invitation_send", middleware.FailOpen), s.SendInvitation)
	invitations.Post("/accept", s.AcceptInvitation)
	invitations.Post("/decline", s.DeclineInvitation)
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
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs rate limiting; running without it is degraded, not down.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
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

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	s.logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		s.logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
