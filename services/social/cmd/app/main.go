package main

import (
	"chronofeed/pkg/config"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/queue"
	"chronofeed/pkg/s3"
	socialApp "chronofeed/services/social/internal/app"

	"github.com/gin-gonic/gin"
)

// @title           Chronofeed Social API
// @version         1.0
// @description     Follow-based social feed: profiles, posts, comments and chronological timelines
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	gin.SetMode(cfg.GinMode)

	// Validate JWT_SECRET for services that use JWT
	if cfg.JWTSecret == config.DefaultJWTSecret || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		panic(err)
	}

	backend, err := socialApp.OpenBackend(cfg)
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	// Events are optional; the service runs without a broker
	var (
		publisher   queue.Publisher = queue.NopPublisher{}
		queueClient *queue.Client
	)
	if cfg.QueueEnabled() {
		queueClient, err = queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
			queueClient = nil
		} else {
			publisher = queueClient
		}
	}

	socialApp.Run(cfg, log, socialApp.Deps{
		Backend:   backend,
		Blobs:     s3Client,
		Publisher: publisher,
	}, queueClient)
}
