package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronofeed/pkg/cache"
	"chronofeed/pkg/config"
	"chronofeed/pkg/jwt"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/middleware"
	"chronofeed/pkg/queue"
	socialHTTP "chronofeed/services/social/internal/controller/http"
	"chronofeed/services/social/internal/repo/persistent"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chronofeed/services/social/docs" // Swagger docs
)

// Deps are the external clients the service runs on.
type Deps struct {
	Backend   *Backend
	Blobs     usecase.BlobStorage
	Publisher queue.Publisher
}

func limitsFrom(cfg *config.Config) usecase.Limits {
	return usecase.Limits{
		UploadMaxBytes:    cfg.UploadMaxBytes,
		ImageMaxDimension: cfg.ImageMaxDimension,
		FeedMaxScan:       cfg.FeedMaxScan,
	}
}

// NewRouter wires repositories, use cases and handlers onto a gin engine.
func NewRouter(cfg *config.Config, log *logger.Logger, deps Deps) *gin.Engine {
	jwtService := jwt.NewService(cfg.JWTSecret).WithIssuer(cfg.JWTIssuer)
	store := deps.Backend.Store
	publisher := deps.Publisher
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	limits := limitsFrom(cfg)

	// Initialize repositories
	profileRepo := persistent.NewProfileRepository(store)
	graphRepo := persistent.NewGraphRepository(store)
	postRepo := persistent.NewPostRepository(store)
	commentRepo := persistent.NewCommentRepository(store)
	notificationRepo := persistent.NewNotificationRepository(store)

	// Initialize use cases
	profileUseCase := usecase.NewProfileUseCase(profileRepo, graphRepo, deps.Blobs, publisher, limits, log)
	postUseCase := usecase.NewPostUseCase(postRepo, commentRepo, profileRepo, deps.Blobs, publisher, limits, log)
	commentUseCase := usecase.NewCommentUseCase(commentRepo, postRepo, profileRepo, publisher, log)
	feedUseCase := usecase.NewFeedUseCase(profileRepo, graphRepo, postRepo, commentRepo, limits, log)
	exploreUseCase := usecase.NewExploreUseCase(profileRepo, graphRepo, postRepo, log)
	live, liveSub := liveChannels(deps.Backend)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, profileRepo, live, log)

	// Initialize HTTP handlers
	paging := socialHTTP.Paging{DefaultLimit: cfg.FeedPageSize, MaxLimit: cfg.FeedMaxPageSize}
	userHandler := socialHTTP.NewUserHandler(profileUseCase, cfg.UploadMaxBytes, log)
	postHandler := socialHTTP.NewPostHandler(postUseCase, paging, cfg.UploadMaxBytes, log)
	commentHandler := socialHTTP.NewCommentHandler(commentUseCase, log)
	feedHandler := socialHTTP.NewFeedHandler(feedUseCase, paging, log)
	exploreHandler := socialHTTP.NewExploreHandler(exploreUseCase, log)
	notificationHandler := socialHTTP.NewNotificationHandler(notificationUseCase, liveSub, jwtService, paging, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Zap()))
	r.Use(middleware.Metrics())
	r.MaxMultipartMemory = cfg.UploadMaxBytes + 1<<20

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSAllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Error("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.AuthMiddleware(jwtService)
	optionalAuth := middleware.OptionalAuthMiddleware(jwtService)

	api := r.Group("/api")
	if deps.Backend.Redis != nil {
		api.Use(middleware.RateLimitMiddleware(deps.Backend.Redis, cfg.RateLimitPerMinute, time.Minute))
	} else {
		api.Use(middleware.LocalRateLimitMiddleware(cfg.RateLimitPerMinute))
	}

	{
		api.GET("/feed", auth, feedHandler.GetFeed)
		api.GET("/latest-posts", auth, feedHandler.GetLatestPosts)

		api.GET("/posts", optionalAuth, postHandler.GetPosts)
		api.POST("/posts", auth, postHandler.CreatePost)
		api.PATCH("/posts", auth, postHandler.UpdatePost)
		api.DELETE("/posts", auth, postHandler.DeletePost)
		api.POST("/upload", auth, postHandler.UploadImage)

		api.GET("/comments", optionalAuth, commentHandler.GetComments)
		api.POST("/comments", auth, commentHandler.CreateComment)
		api.DELETE("/comments", auth, commentHandler.DeleteComment)

		api.GET("/user", optionalAuth, userHandler.GetUser)
		api.POST("/user", auth, userHandler.CreateUser)
		api.PATCH("/user", auth, userHandler.UpdateUser)
		api.PUT("/user", auth, userHandler.FollowUser)
		api.POST("/user/avatar", auth, userHandler.UploadAvatar)
		api.GET("/user/following", userHandler.GetFollowing)
		api.GET("/user/followers", userHandler.GetFollowers)

		api.GET("/stats", exploreHandler.GetStats)
		api.GET("/leaderboard", exploreHandler.GetLeaderboard)
		api.GET("/latest-signups", exploreHandler.GetLatestSignups)

		api.GET("/notifications", auth, notificationHandler.GetNotifications)
		api.GET("/notifications/ws", optionalAuth, notificationHandler.StreamNotifications)
	}

	return r
}

// liveChannels returns Redis pub/sub as both ends of the live notification
// stream, or nil interfaces when the store is not Redis.
func liveChannels(b *Backend) (usecase.LivePublisher, socialHTTP.LiveSubscriber) {
	if b.Redis == nil {
		return nil, nil
	}
	ps := cache.NewPubSub(b.Redis)
	return ps, ps
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func Run(cfg *config.Config, log *logger.Logger, deps Deps, queueClient *queue.Client) {
	r := NewRouter(cfg, log, deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Events published by this service come back through the notification
	// queue and are turned into inbox entries.
	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	defer stopConsuming()
	if queueClient != nil {
		store := deps.Backend.Store
		live, _ := liveChannels(deps.Backend)
		notifications := usecase.NewNotificationUseCase(
			persistent.NewNotificationRepository(store),
			persistent.NewProfileRepository(store),
			live,
			log,
		)
		go func() {
			if err := queueClient.Consume(consumeCtx, notifications.HandleEvent); err != nil {
				log.Error("Notification consumer stopped: %v", err)
			}
		}()
	}

	// Start server in a goroutine
	go func() {
		log.Info("Social service starting on port %s (store: %s)", cfg.ServerPort, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down social service...")

	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopConsuming()

	// Close RabbitMQ connection
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if err := deps.Backend.Close(); err != nil {
		log.Error("Error closing store: %v", err)
	}

	log.Info("Social service exited")
	_ = log.Sync()
}
