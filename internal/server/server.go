// Package server wires the fiber application: middleware, routes and the HTML
// handlers.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/internal/session"
	"warbler/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const csrfContextKey = "csrf"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	rateLimiter    *middleware.RateLimiter
	sessions       *session.Manager
	userRepo       repository.UserRepository
	messageRepo    repository.MessageRepository
	followRepo     repository.FollowRepository
	likeRepo       repository.LikeRepository
	userService    *service.UserService
	messageService *service.MessageService
	followService  *service.FollowService
	likeService    *service.LikeService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient keeps sessions in memory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	var storage fiber.Storage
	if redisClient != nil {
		storage = session.NewRedisStorage(redisClient)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("warbler"),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env != "test" && cfg.Env != "development"),
		sessions: session.NewManager(session.Options{
			Storage: storage,
			TTL:     time.Duration(cfg.SessionTTLHours) * time.Hour,
			Secure:  cfg.IsProduction(),
		}),
		userRepo:    repository.NewUserRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		likeRepo:    repository.NewLikeRepository(db),
	}

	s.userService = service.NewUserService(s.userRepo, s.followRepo, s.likeRepo, s.messageRepo, cfg.BcryptCost)
	s.messageService = service.NewMessageService(s.messageRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.likeService = service.NewLikeService(s.likeRepo, s.messageRepo)

	return s, nil
}

// App returns the configured fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        views.NewEngine(),
		ViewsLayout:  views.Layout,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	// Context Middleware to propagate Request ID and trace ID into slog
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Profile images are arbitrary external URLs.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		return c.Next()
	})

	app.Use("/static", filesystem.New(filesystem.Config{
		Root: views.StaticFS(),
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: s.config.CookieKey(),
	}))

	// Render errors inside the encryption scope so cookies set by the error
	// page are encrypted too.
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return s.errorHandler(c, err)
		}
		return nil
	})

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:_csrf",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.IsProduction(),
			CookieHTTPOnly: true,
			Expiration:     time.Hour,
			KeyGenerator:   uuid.NewString,
			ContextKey:     csrfContextKey,
		}))
	}

	app.Use(middleware.LoadCurrentUser(s.sessions, s.userRepo))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	auth := middleware.RequireUser(s.sessions)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/", s.Homepage)

	app.Get("/signup", s.SignupForm)
	app.Post("/signup", s.rateLimiter.Limit(5, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginForm)
	app.Post("/login", s.loginLimiter().Limit(10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", auth, s.Logout)

	users := app.Group("/users")
	users.Get("/", auth, s.ListUsers)
	// Fixed paths before the generic /:id routes
	users.Get("/profile", auth, s.EditProfileForm)
	users.Post("/profile", auth, s.UpdateProfile)
	users.Post("/delete", auth, s.DeleteUser)
	users.Post("/follow/:id", auth, s.Follow)
	users.Post("/stop-following/:id", auth, s.StopFollowing)
	users.Get("/:id/following", auth, s.ShowFollowing)
	users.Get("/:id/followers", auth, s.ShowFollowers)
	users.Get("/:id/likes", auth, s.ShowLikes)
	users.Get("/:id", s.ShowUser)

	messages := app.Group("/messages", auth)
	messages.Get("/new", s.NewMessageForm)
	messages.Post("/new", s.rateLimiter.Limit(30, time.Minute, "create_message"), s.CreateMessage)
	messages.Get("/:id", s.ShowMessage)
	messages.Post("/:id/delete", s.DeleteMessage)
	messages.Post("/:id/like", s.LikeMessage)
	messages.Post("/:id/like/delete", s.UnlikeMessage)

	app.Use(s.notFound)
}

// loginLimiter fails closed in production when Redis is configured.
func (s *Server) loginLimiter() *middleware.RateLimiter {
	if s.redis != nil && s.config.IsProduction() {
		return s.rateLimiter.WithPolicy(middleware.FailClosed)
	}
	return s.rateLimiter
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so only
// a configured but failing Redis makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
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
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := middleware.ErrorStatus(err)
	message := "Something went wrong. Please try again."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		message = fe.Message
	}

	if code == fiber.StatusNotFound {
		return s.notFound(c)
	}
	if code >= fiber.StatusInternalServerError {
		c.Locals(middleware.LocalHandledError, err)
	}

	if renderErr := c.Status(code).Render("error", s.viewData(c, fiber.Map{
		"Title":   http.StatusText(code),
		"Status":  code,
		"Message": message,
	})); renderErr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}

func (s *Server) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("404", s.viewData(c, fiber.Map{"Title": "Page not found"}))
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
