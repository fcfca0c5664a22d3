package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/config"
	"github.com/amityhq/amity-api/internal/database"
	"github.com/amityhq/amity-api/internal/handler"
	"github.com/amityhq/amity-api/internal/middleware"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/observability"
	"github.com/amityhq/amity-api/internal/realtime"
	"github.com/amityhq/amity-api/internal/repository"
	"github.com/amityhq/amity-api/internal/router"
	"github.com/amityhq/amity-api/internal/service"
	cloud "github.com/amityhq/amity-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.MessageAttachment{},
		&models.MessageReaction{},
		&models.MessageRead{},
		&models.MessageReceipt{},
		&models.Notification{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.Story{},
		&models.UploadRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var storage service.FileStorage
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = uploader
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	readRepo := repository.NewReadRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	messageService := service.NewMessageService(messageRepo, roomRepo, redisClient, cfg.RealtimeChannel, logger)
	readService := service.NewReadService(readRepo, messageRepo, roomRepo, logger)
	roomService := service.NewRoomService(roomRepo, messageRepo, redisClient, cfg.RealtimeChannel, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	postService := service.NewPostService(postRepo, userRepo, notificationService, validate, logger)
	storyService := service.NewStoryService(storyRepo, userRepo, cfg.StoryTTL, validate, logger)
	friendService := service.NewFriendService(userRepo, notificationService, validate, logger)
	presenceCache := service.NewPresenceCache(redisClient, cfg.RealtimeChannel, logger)

	presence := realtime.NewPresence(logger)
	gateway := realtime.NewGateway(redisClient, cfg.RealtimeChannel, natsConn, logger)
	eventRouter := realtime.NewRouter(presence, gateway, messageService, readService, roomService, logger)
	eventRouter.SetMirror(presenceCache)

	runCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()

	gateway.Start(runCtx)
	notificationService.Start(runCtx)
	storyService.Start(runCtx)

	var uploadHandler *handler.UploadHandler
	if storage != nil {
		uploadService := service.NewUploadService(storage, uploadRepo, cfg.UploadMaxMB, logger)
		uploadHandler = handler.NewUploadHandler(uploadService, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		RealtimeHandler:     handler.NewRealtimeHandler(gateway, eventRouter, cfg.JWTSecret, logger),
		RoomHandler:         handler.NewRoomHandler(roomService, logger),
		MessageHandler:      handler.NewMessageHandler(messageService, readService, validate, logger),
		PresenceHandler:     handler.NewPresenceHandler(presence, presenceCache, logger),
		PostHandler:         handler.NewPostHandler(postService, logger),
		StoryHandler:        handler.NewStoryHandler(storyService, logger),
		FriendHandler:       handler.NewFriendHandler(friendService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive),
		UploadHandler:       uploadHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopServices)
}

func waitForShutdown(app *fiber.App, stopServices context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopServices()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
