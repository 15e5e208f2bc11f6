package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Islomov1/eit-lc-crm/internal/config"
	"github.com/Islomov1/eit-lc-crm/internal/database"
	"github.com/Islomov1/eit-lc-crm/internal/handlers"
	"github.com/Islomov1/eit-lc-crm/internal/middleware"
	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/services"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is an optional read-through cache; the service runs without it
	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Printf("Warning: Redis unavailable, running without cache: %v", err)
		redisClient = nil
	}
	cache := database.NewCache(redisClient)

	// Telegram Bot API client
	bot := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramAPIBase)

	// Core services
	deliveryStore := services.NewGormDeliveryStore(db)
	directory := services.NewGormStudentDirectory(db, cache)
	dispatcher := services.NewDeliveryDispatcher(directory, deliveryStore, bot, cfg.MaxSendAttempts)
	sweeper := services.NewRetrySweeper(deliveryStore, bot)
	linkStore := services.NewGormLinkStore(db)
	processor := services.NewWebhookProcessor(linkStore, linkStore, bot, cache)
	reportService := services.NewReportService(db, dispatcher)
	inviteService := services.NewInviteService(db, cfg.TelegramBotName)
	attendanceService := services.NewAttendanceWarningService(db, dispatcher)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "EIT LC CRM API v1.0",
		ServerHeader: "EITLC",
		BodyLimit:    2 * 1024 * 1024, // 2MB, webhook payloads are small
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "eitlc-crm-api",
		})
	})

	// Initialize handlers
	telegramHandler := handlers.NewTelegramHandler(processor, cfg.WebhookSecret)
	deliveryHandler := handlers.NewDeliveryHandler(db, sweeper, cfg.CronSecret, cfg.MaxSendAttempts)
	adminHandler := handlers.NewAdminHandler(reportService, inviteService, attendanceService, dispatcher)

	// API routes
	api := app.Group("/api")

	// Apply rate limiting to API routes (100 requests per minute by default)
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Provider-facing routes, authenticated by their own secrets
	api.Post("/telegram/webhook", telegramHandler.Webhook)
	api.Post("/telegram/retry-sweep", deliveryHandler.Sweep)
	api.Get("/telegram/retry-sweep", deliveryHandler.Sweep)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/telegram-status", deliveryHandler.Status)
	admin.Post("/notify", adminHandler.Notify)
	admin.Post("/reports", adminHandler.CreateLessonReport)
	admin.Post("/support-sessions", adminHandler.CreateSupportSession)
	admin.Post("/invites", adminHandler.CreateInvite)
	admin.Post("/attendance-warnings", adminHandler.RunAttendanceWarnings)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if redisClient != nil {
			redisClient.Close()
		}
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting EIT LC CRM API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
