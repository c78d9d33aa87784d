package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/cache"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/config"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/handlers"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/handlers/ws"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/logging"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/middleware"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	db, err := repository.InitDB(cfg.DSN(), cfg.DBMaxOpenConns)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Redis is optional; without it the notification cache lives in process.
	var store cache.Store = cache.NewLocalCache(cache.SettingsTTL, 5*time.Minute)
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(); err != nil {
			log.WithError(err).Warn("redis unavailable, using in-process cache")
		} else {
			defer redisCache.Close()
			store = redisCache
			log.WithField("addr", cfg.RedisAddr).Info("redis cache connected")
		}
	}
	notifCache := cache.NewNotificationCache(store)

	// Storage is best effort; file endpoints answer 503 without it.
	var objects service.ObjectStore
	if cfg.S3Configured() {
		s3, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.WithError(err).Warn("failed to initialize S3 storage")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s3.EnsureBucket(ctx, cfg.S3Region); err != nil {
				log.WithError(err).Warn("S3 bucket check failed")
			}
			cancel()
			objects = s3
			log.WithField("bucket", cfg.S3Bucket).Info("S3 storage initialized")
		}
	} else {
		log.Warn("S3 storage not configured, file endpoints disabled")
	}

	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(db)
	groupService := service.NewGroupService(repository.NewGroupRepository(db), userRepo)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, notifCache, hub, cfg.Location())
	inviteService := service.NewInviteService(repository.NewInviteRepository(db), userRepo, groupService, notificationService, cfg.InviteTTL)
	eventService := service.NewEventService(repository.NewEventRepository(db), groupService, notificationService)
	fileService := service.NewFileService(repository.NewFileRepository(db), groupService, objects, cfg.MaxUploadBytes)
	authService := service.NewAuthService(userRepo, inviteService, cfg.JWTSecret, cfg.JWTTTL).
		WithPasswordMinLength(cfg.PasswordMinLength).
		WithAdminEmails(cfg.AdminEmails)
	userService := service.NewUserService(userRepo).WithPasswordMinLength(cfg.PasswordMinLength)

	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// Multipart overhead on top of the largest accepted file.
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return httpx.Error(c, fe.Code, "http_error", fe.Message)
			}
			return httpx.FromError(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.Origins()),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, If-None-Match",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.OriginAllowed(cfg.Origins()))

	app.Get("/health", func(c *fiber.Ctx) error {
		return httpx.OK(c, "FatecTeams API em execução", fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/ws", hub.Upgrade(cfg.JWTSecret))

	handlers.Register(app, handlers.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(userService),
		Group:        handlers.NewGroupHandler(groupService),
		Invite:       handlers.NewInviteHandler(inviteService),
		Event:        handlers.NewEventHandler(eventService),
		Notification: handlers.NewNotificationHandler(notificationService),
		File:         handlers.NewFileHandler(fileService),
		Admin:        handlers.NewAdminHandler(inviteService),
	}, cfg.JWTSecret)

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	hub.Close()
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func corsOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
