// Package server contains the HTTP handlers for the HBnB API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hbnb/internal/cache"
	"hbnb/internal/config"
	"hbnb/internal/database"
	"hbnb/internal/facade"
	"hbnb/internal/middleware"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/repository"
	"hbnb/internal/service"

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
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	secret         []byte
	tokenTTL       time.Duration
	authenticate   fiber.Handler

	facade    *facade.Facade
	notifier  *notifications.Notifier
	users     *service.UserService
	places    *service.PlaceService
	reviews   *service.ReviewService
	amenities *service.AmenityService
}

// NewServer opens the storage selected by cfg and Redis when configured,
// then builds the server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	var (
		store repository.Store
		db    *gorm.DB
	)

	switch cfg.StorageBackend {
	case config.StorageMemory:
		store = repository.NewMemoryStore()
	default:
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		store = repository.NewGormStore(db)
	}

	return NewServerWithDeps(cfg, store, db, cache.InitRedis(cfg.RedisURL)), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// db and redisClient may be nil: readiness then skips those checks, and
// caching, rate limiting and change events are disabled.
func NewServerWithDeps(cfg *config.Config, store repository.Store, db *gorm.DB, redisClient *redis.Client) *Server {
	var events service.Publisher
	var notifier *notifications.Notifier
	if redisClient != nil {
		cache.SetClient(redisClient)
		store = repository.NewCachedStore(store)
		notifier = notifications.NewNotifier(redisClient)
		events = notifier
	}

	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	f := facade.New(store)
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("hbnb-api"),
		secret:         []byte(cfg.JWTSecret),
		tokenTTL:       ttl,
		facade:         f,
		notifier:       notifier,
		users:          service.NewUserService(f, events),
		places:         service.NewPlaceService(f, events),
		reviews:        service.NewReviewService(f, events),
		amenities:      service.NewAmenityService(f, events),
	}
	s.authenticate = middleware.Authenticate(s.secret)
	return s
}

// Facade exposes the facade the handlers write through.
func (s *Server) Facade() *facade.Facade { return s.facade }

// App builds the Fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "HBnB API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
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

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", s.protected(s.Me)...)

	users := api.Group("/users")
	users.Get("/", s.protected(s.ListUsers)...)
	users.Post("/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.OptionalAuth(), s.CreateUser)
	users.Get("/:id", s.protected(s.GetUser)...)
	users.Put("/:id", s.protected(s.UpdateUser)...)
	users.Delete("/:id", s.protected(s.DeleteUser)...)

	places := api.Group("/places")
	places.Get("/", s.ListPlaces)
	places.Post("/", s.protected(s.CreatePlace)...)
	// Specific /:id/:resource routes before the generic /:id routes
	places.Get("/:id/reviews", s.GetPlaceReviews)
	places.Post("/:id/amenities/:amenityId", s.protected(s.AddPlaceAmenity)...)
	places.Get("/:id", s.GetPlace)
	places.Put("/:id", s.protected(s.UpdatePlace)...)
	places.Delete("/:id", s.protected(s.DeletePlace)...)

	reviews := api.Group("/reviews")
	reviews.Get("/", s.ListReviews)
	reviews.Post("/", s.protected(s.CreateReview)...)
	reviews.Get("/:id", s.GetReview)
	reviews.Put("/:id", s.protected(s.UpdateReview)...)
	reviews.Delete("/:id", s.protected(s.DeleteReview)...)

	amenities := api.Group("/amenities")
	amenities.Get("/", s.ListAmenities)
	amenities.Post("/", s.protected(s.CreateAmenity)...)
	amenities.Get("/:id", s.GetAmenity)
	amenities.Put("/:id", s.protected(s.UpdateAmenity)...)
	amenities.Delete("/:id", s.protected(s.DeleteAmenity)...)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only an unreachable database makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "memory"
	if s.db != nil {
		dbStatus = "healthy"
		if err := database.Ping(ctx, s.db); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port and blocks until the app stops.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
