package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// API
	APIPort int

	// Telegram
	TelegramBotToken string
	TelegramBotName  string
	TelegramAPIBase  string
	WebhookSecret    string

	// Pre-shared secrets for server-to-server calls
	CronSecret  string
	AdminSecret string

	// Delivery retry policy
	MaxSendAttempts int
}

func Load() *Config {
	// .env is optional; real deployments provide env vars directly
	_ = godotenv.Load()

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN not set - outbound delivery will fail until configured!")
	}

	webhookSecret := os.Getenv("TELEGRAM_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Println("WARNING: TELEGRAM_WEBHOOK_SECRET not set - webhook endpoint will reject all updates!")
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		log.Println("WARNING: CRON_SECRET not set - retry sweep endpoint will reject all calls!")
	}

	adminSecret := os.Getenv("ADMIN_API_SECRET")
	if adminSecret == "" {
		log.Println("WARNING: ADMIN_API_SECRET not set - admin endpoints will reject all calls!")
	}

	dbPassword := getEnv("DB_PASSWORD", "")
	if dbPassword == "" {
		log.Println("WARNING: DB_PASSWORD not set - this is insecure for production!")
		dbPassword = "changeme"
	}

	redisPassword := getEnv("REDIS_PASSWORD", "")
	if redisPassword == "" {
		log.Println("WARNING: REDIS_PASSWORD not set - Redis is not secured!")
	}

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "eitlc"),
		DBPassword: dbPassword,
		DBName:     getEnv("DB_NAME", "eitlc"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: redisPassword,

		// API
		APIPort: getEnvInt("API_PORT", 8080),

		// Telegram
		TelegramBotToken: botToken,
		TelegramBotName:  getEnv("TELEGRAM_BOT_NAME", ""),
		TelegramAPIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		WebhookSecret:    webhookSecret,

		CronSecret:  cronSecret,
		AdminSecret: adminSecret,

		MaxSendAttempts: getEnvInt("TELEGRAM_MAX_ATTEMPTS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
