// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "socialapi/docs" // swagger docs
	"socialapi/internal/cache"
	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/featureflags"
	"socialapi/internal/middleware"
	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// APIVersion is reported by the readiness probe.
const APIVersion = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	featureFlags    *featureflags.Manager
	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	taxonomyService *service.TaxonomyService
}

// NewServer connects to the database and Redis described by cfg and wires the services.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; token revocation and shared caching are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("social-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.userService = service.NewUserService(userRepo, repository.NewProfileRepository(db))
	s.authService = service.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	s.postService = service.NewPostService(postRepo, categoryRepo, tagRepo,
		repository.NewLikeRepository(db), s.featureFlags, s.userService.IsAdmin)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db), postRepo, s.userService.IsAdmin)
	s.taxonomyService = service.NewTaxonomyService(categoryRepo, tagRepo)

	return s, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:            "Social API",
		ErrorHandler:       errorHandler,
		JSONEncoder:        jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:        jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		ProxyHeader:        fiber.HeaderXForwardedFor,
		EnableIPValidation: true,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler turns any error that escaped a handler, including fiber's own
// 404/405 errors, into the failure envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
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

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later"))
		},
	}))
}

// SetupRoutes configures all routes for the application. Trailing slashes are
// optional because the app is not in strict routing mode.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	v1 := app.Group("/api/v1")
	v1.Get("/", s.APIRoot)
	v1.Get("/swagger/*", swagger.HandlerDefault)
	v1.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Social API Metrics"}))

	authRequired := s.AuthRequired()
	optionalAuth := s.OptionalAuth()
	adminRequired := s.AdminRequired()

	auth := v1.Group("/auth")
	auth.Post("/login", s.Login)
	auth.Post("/logout", authRequired, s.Logout)

	users := v1.Group("/users")
	users.Post("/", s.Register)
	users.Get("/", authRequired, s.ListUsers)
	users.Get("/me", authRequired, s.GetMe)
	users.Put("/me", authRequired, s.UpdateMe)
	users.Patch("/me", authRequired, s.UpdateMe)
	users.Delete("/me", authRequired, s.DeactivateMe)
	users.Get("/profile", authRequired, s.GetMyProfile)
	users.Put("/profile", authRequired, s.UpdateMyProfile)
	users.Patch("/profile", authRequired, s.UpdateMyProfile)
	users.Get("/:id", authRequired, s.GetUser)

	posts := v1.Group("/posts")

	// Fixed segments before the generic /:id routes.
	categories := posts.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Post("/", authRequired, adminRequired, s.CreateCategory)
	categories.Get("/:id", s.GetCategory)
	categories.Put("/:id", authRequired, adminRequired, s.UpdateCategory)
	categories.Patch("/:id", authRequired, adminRequired, s.UpdateCategory)
	categories.Delete("/:id", authRequired, adminRequired, s.DeleteCategory)

	tags := posts.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Post("/", authRequired, adminRequired, s.CreateTag)
	tags.Get("/:id", s.GetTag)
	tags.Put("/:id", authRequired, adminRequired, s.UpdateTag)
	tags.Patch("/:id", authRequired, adminRequired, s.UpdateTag)
	tags.Delete("/:id", authRequired, adminRequired, s.DeleteTag)

	comments := posts.Group("/comments")
	comments.Get("/:id", optionalAuth, s.GetComment)
	comments.Put("/:id", authRequired, s.UpdateComment)
	comments.Patch("/:id", authRequired, s.UpdateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	posts.Get("/", optionalAuth, s.ListPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/:id/comments", optionalAuth, s.ListComments)
	posts.Post("/:id/comments", authRequired, s.CreateComment)
	posts.Post("/:id/like", authRequired, s.ToggleLike)
	posts.Post("/:id/publish", authRequired, s.PublishPost)
	posts.Post("/:id/archive", authRequired, s.ArchivePost)
	posts.Post("/:id/restore", authRequired, s.RestorePost)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Patch("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	admin := v1.Group("/admin", authRequired, adminRequired)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Post("/tags/recount", s.RecountTags)
}

// APIRoot handles GET /api/v1/
// @Summary API descriptor
// @Tags meta
// @Produce json
// @Success 200 {object} models.Envelope
// @Router / [get]
func (s *Server) APIRoot(c *fiber.Ctx) error {
	return models.RespondOK(c, fiber.StatusOK, "Social API v1", fiber.Map{
		"message": "Social API v1",
		"endpoints": fiber.Map{
			"auth":       "/api/v1/auth/",
			"users":      "/api/v1/users/",
			"posts":      "/api/v1/posts/",
			"categories": "/api/v1/posts/categories/",
			"tags":       "/api/v1/posts/tags/",
		},
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional; its
// absence degrades readiness only when a client was configured and fails.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": APIVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server and closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
