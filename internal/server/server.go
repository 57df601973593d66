// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "socialhub/docs" // swagger docs
	"socialhub/internal/config"
	"socialhub/internal/featureflags"
	"socialhub/internal/mail"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
	"socialhub/internal/service"
	"socialhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService         *service.AuthService
	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	relationshipService *service.RelationshipService
	notificationService *service.NotificationService
	searchService       *service.SearchService
}

// Deps are the externally initialized collaborators of a Server. Store and
// Mailer default to a local upload directory and the log mailer.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Store  storage.ObjectStore
	Mailer mail.Mailer
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables cross-process push; events are then delivered
// to sockets of this process only.
func NewServerWithDeps(cfg *config.Config, d Deps) (*Server, error) {
	if d.DB == nil {
		return nil, errors.New("database is required")
	}
	store := d.Store
	if store == nil {
		local, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		store = local
	}

	userRepo := repository.NewUserRepository(d.DB)
	postRepo := repository.NewPostRepository(d.DB)
	commentRepo := repository.NewCommentRepository(d.DB)

	s := &Server{
		config:       cfg,
		db:           d.DB,
		redis:        d.Redis,
		notifier:     notifications.NewNotifier(d.Redis),
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}
	publisher := notifications.NewPublisher(s.hub, s.notifier, s.featureFlags)
	media := service.NewMediaService(store, cfg)

	s.authService = service.NewAuthService(service.AuthDeps{
		Users:    userRepo,
		Sessions: repository.NewSessionRepository(d.DB),
		Tokens:   service.NewTokenManager(cfg),
		Media:    media,
		Mailer:   d.Mailer,
		Flags:    s.featureFlags,
		BaseURL:  cfg.AppBaseURL,
		ResetTTL: cfg.PasswordResetTTL(),
	})
	s.userService = service.NewUserService(userRepo, media)
	s.notificationService = service.NewNotificationService(
		repository.NewNotificationRepository(d.DB), userRepo, publisher)
	s.relationshipService = service.NewRelationshipService(
		repository.NewRelationshipRepository(d.DB), userRepo, s.notificationService, publisher)
	s.postService = service.NewPostService(service.PostDeps{
		Posts:         postRepo,
		Comments:      commentRepo,
		Users:         userRepo,
		Media:         media,
		Notifications: s.notificationService,
		Flags:         s.featureFlags,
	})
	s.commentService = service.NewCommentService(service.CommentDeps{
		Comments:      commentRepo,
		Posts:         postRepo,
		Users:         userRepo,
		Notifications: s.notificationService,
		Flags:         s.featureFlags,
	})
	s.searchService = service.NewSearchService(userRepo, postRepo, commentRepo)

	return s, nil
}

// App builds the Fiber application with middleware and routes mounted.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "SocialHub API",
		BodyLimit:    s.bodyLimit(),
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) bodyLimit() int {
	mb := s.config.ImageMaxUploadMB
	if s.config.AvatarMaxUploadMB > mb {
		mb = s.config.AvatarMaxUploadMB
	}
	if mb <= 0 {
		mb = 4
	}
	// Multipart framing and text fields ride along with the file.
	return (mb + 1) * 1024 * 1024
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"statusCode": fe.Code,
			"message":    fe.Message,
			"success":    false,
			"code":       models.CodeForStatus(fe.Code),
		})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
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
				"statusCode": fiber.StatusTooManyRequests,
				"message":    "Too many requests, please try again later.",
				"success":    false,
				"code":       models.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SocialHub Metrics Dashboard",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	if s.config.StorageDriver == "" || s.config.StorageDriver == "local" {
		app.Static(s.config.PublicBaseURL, s.config.UploadDir, fiber.Static{MaxAge: 3600})
	}

	protected := middleware.AuthRequired(s.authService)

	auth := app.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Get("/verify/:token", s.VerifyEmail)
	auth.Post("/forgot-password", middleware.RateLimit(s.redis, 3, 15*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", s.ResetPassword)
	auth.Post("/logout", protected, s.Logout)
	auth.Post("/logout-all", protected, s.LogoutAll)
	auth.Get("/sessions", protected, s.GetSessions)

	users := app.Group("/users", protected)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)

	posts := app.Group("/posts", protected)
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.CreatePost)
	posts.Post("/create", s.CreatePost)
	posts.Get("/user/:userId", s.GetUserPosts)
	posts.Post("/:postId/like", s.TogglePostLike)
	posts.Get("/:postId", s.GetPost)
	posts.Delete("/:postId", s.DeletePost)

	comments := app.Group("/comments", protected)
	comments.Post("/add/:postId", s.AddComment)
	comments.Post("/:commentId/reply", s.ReplyToComment)
	comments.Get("/:commentId/replies", s.GetReplies)
	comments.Put("/:commentId/like", s.ToggleCommentLike)
	comments.Post("/:commentId/like", s.LikeComment)
	comments.Post("/:commentId/unlike", s.UnlikeComment)
	// GET /comments/:postId lists a post's comments; the other verbs address a comment.
	comments.Get("/:postId", s.GetComments)
	comments.Put("/:commentId", s.UpdateComment)
	comments.Delete("/:commentId", s.DeleteComment)

	friends := app.Group("/friends", protected)
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetFriendRequests)
	friends.Get("/blocked", s.GetBlockedUsers)
	friends.Post("/request/:receiverId",
		middleware.RateLimit(s.redis, 20, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/accept/:requestId", s.AcceptFriendRequest)
	friends.Post("/reject/:requestId", s.RejectFriendRequest)
	friends.Delete("/unfriend/:friendId", s.Unfriend)
	friends.Post("/block/:blockId", s.BlockUser)
	friends.Post("/unblock/:blockId", s.UnblockUser)

	notes := app.Group("/notifications", protected)
	notes.Post("/", s.CreateNotification)
	notes.Get("/", s.GetNotifications)
	notes.Get("/unread-count", s.GetUnreadCount)
	notes.Put("/read-all", s.MarkAllNotificationsRead)
	notes.Put("/:notificationId/read", s.MarkNotificationRead)
	notes.Delete("/:notificationId", s.DeleteNotification)

	search := app.Group("/search", protected, middleware.RateLimit(s.redis, 30, time.Minute, "search"))
	search.Get("/users", s.SearchUsers)
	search.Get("/posts", s.SearchPosts)
	search.Get("/comments", s.SearchComments)

	app.Get("/feature-flags", protected, s.GetFeatureFlags)
	app.Get("/ws", protected, s.WebsocketUpgrade, s.WebsocketHandler())
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

	// Redis only carries cross-process push and the blacklist; without it the
	// API still serves requests.
	redisStatus := "disabled"
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
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the hub to Redis and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.promMiddleware = middleware.InitMetrics("socialhub-api")
	app := s.App()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start hub wiring",
				slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub",
			slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
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
