package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/auth"
	"github.com/linkup-app/backend/internal/cache"
	"github.com/linkup-app/backend/internal/config"
	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/docs"
	"github.com/linkup-app/backend/internal/email"
	"github.com/linkup-app/backend/internal/handlers"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/middleware"
	"github.com/linkup-app/backend/internal/moderation"
	"github.com/linkup-app/backend/internal/storage"
	"github.com/linkup-app/backend/internal/stories"
	"github.com/linkup-app/backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("Starting LinkUp backend",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional: without it rate limiting degrades to allow-all
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, rate limiting disabled", err)
	} else {
		defer redisClient.Close()
	}

	ctx := context.Background()

	emailSender, err := email.NewSender(ctx, cfg.AWSRegion, cfg.EmailFrom, cfg.FrontendURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize email sender", err)
	}

	var uploader *storage.ImageUploader
	if cfg.ImageBucket != "" {
		uploader, err = storage.NewImageUploader(ctx, cfg.AWSRegion, cfg.ImageBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize image storage", err)
		}
		if err := uploader.CheckBucketAccess(ctx); err != nil {
			logger.WarnWithFields("Image bucket not accessible", err)
		}
	} else {
		logger.Log.Warn("AWS_BUCKET not set, image uploads disabled")
	}

	moderator := moderation.NewClient(cfg.ModerationURL)
	if !moderator.Enabled() {
		logger.Log.Warn("MODERATION_API_URL not set, content moderation disabled")
	}

	authService := auth.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	h := handlers.NewHandlers(authService, emailSender, uploader, moderator)

	cleanup := stories.NewCleanupService(1*time.Hour, uploader)
	cleanup.Start()
	defer cleanup.Stop()

	router := buildRouter(cfg, h, moderator)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Forced shutdown", err)
	}

	logger.Log.Info("Server stopped")
}

func buildRouter(cfg *config.Config, h *handlers.Handlers, moderator *moderation.Client) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validation.RegisterGinValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler(moderator))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	docs.Register(api)

	v1 := api.Group("/v1")

	// Auth routes take the strictest rate limit: they do bcrypt work and
	// are the primary brute-force target
	authGroup := v1.Group("/auth")
	authGroup.Use(middleware.RedisRateLimitMiddleware(10, 1*time.Minute))
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/password-reset", h.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)
		authGroup.GET("/me", h.AuthMiddleware(), h.Me)
	}

	protected := v1.Group("")
	protected.Use(h.AuthMiddleware())
	protected.Use(middleware.RedisRateLimitMiddleware(300, 1*time.Minute))
	{
		// Hot feed endpoints get a short-TTL response cache
		feedCache := middleware.ResponseCacheMiddleware("feed", 30*time.Second)
		protected.GET("/feed", feedCache, h.GetFeed)
		protected.GET("/feed/explore", feedCache, h.GetExploreFeed)

		protected.POST("/posts", h.CreatePost)
		protected.POST("/posts/image", h.UploadPostImage)
		protected.GET("/posts/:id", h.GetPost)
		protected.PATCH("/posts/:id", h.UpdatePost)
		protected.DELETE("/posts/:id", h.DeletePost)
		protected.POST("/posts/:id/like", h.LikePost)
		protected.DELETE("/posts/:id/like", h.UnlikePost)
		protected.GET("/posts/:id/likes", h.GetPostLikes)
		protected.POST("/posts/:id/comments", h.CreateComment)
		protected.GET("/posts/:id/comments", h.GetComments)

		protected.PATCH("/comments/:id", h.UpdateComment)
		protected.DELETE("/comments/:id", h.DeleteComment)
		protected.POST("/comments/:id/like", h.LikeComment)
		protected.DELETE("/comments/:id/like", h.UnlikeComment)

		protected.POST("/stories", h.CreateStory)
		protected.GET("/stories", h.GetStoriesFeed)
		protected.POST("/stories/image", h.UploadStoryImage)
		protected.POST("/stories/:id/view", h.ViewStory)
		protected.GET("/stories/:id/views", h.GetStoryViews)
		protected.DELETE("/stories/:id", h.DeleteStory)

		protected.GET("/users", h.SearchUsers)
		protected.PATCH("/users/me", h.UpdateProfile)
		protected.PUT("/users/me/username", h.ChangeUsername)
		protected.POST("/users/me/profile-picture", h.UploadProfilePicture)
		protected.GET("/users/:username", h.GetUserProfile)
		protected.POST("/users/:username/follow", h.FollowUser)
		protected.DELETE("/users/:username/follow", h.UnfollowUser)
		protected.GET("/users/:username/followers", h.GetFollowers)
		protected.GET("/users/:username/following", h.GetFollowing)
		protected.GET("/users/:username/highlights", h.GetUserHighlights)
		protected.GET("/users/:username/posts", h.ListUserPosts)

		protected.GET("/follow-requests", h.GetFollowRequests)
		protected.GET("/follow-requests/outgoing", h.GetOutgoingFollowRequests)
		protected.POST("/follow-requests/:id/accept", h.AcceptFollowRequest)
		protected.POST("/follow-requests/:id/decline", h.DeclineFollowRequest)

		protected.POST("/highlights", h.CreateHighlight)
		protected.GET("/highlights/:id", h.GetHighlight)
		protected.PATCH("/highlights/:id", h.UpdateHighlight)
		protected.DELETE("/highlights/:id", h.DeleteHighlight)
		protected.POST("/highlights/:id/stories", h.AddHighlightStories)
		protected.PUT("/highlights/:id/stories", h.ReorderHighlightStories)
		protected.DELETE("/highlights/:id/stories", h.RemoveHighlightStories)

		protected.GET("/notifications", h.GetNotifications)
		protected.POST("/notifications/seen", h.MarkNotificationsSeen)
		protected.POST("/notifications/:id/read", h.MarkNotificationRead)
		protected.POST("/notifications/read-all", h.MarkAllNotificationsRead)

		admin := protected.Group("/admin")
		admin.Use(h.AdminMiddleware())
		{
			admin.GET("/stats", h.GetAdminStats)
		}
	}

	return router
}

// healthHandler reports overall service health including adapters
func healthHandler(moderator *moderation.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{}

		if err := database.Health(); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}

		if rc := cache.GetRedisClient(); rc != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := rc.Health(ctx); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
			} else {
				checks["redis"] = "ok"
			}
		} else {
			checks["redis"] = "disabled"
		}

		if moderator.Enabled() {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := moderator.Health(ctx); err != nil {
				// Moderation fails open, so a down service does not make
				// the API unhealthy
				checks["moderation"] = "degraded: " + err.Error()
			} else {
				checks["moderation"] = "ok"
			}
		} else {
			checks["moderation"] = "disabled"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status": overall,
			"checks": checks,
		})
	}
}
