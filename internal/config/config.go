package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort         = "5000"
	defaultUploadPath   = "./uploads"
	defaultMaxFileSize  = 5 * 1024 * 1024
	defaultJWTTTL       = 24 * time.Hour
	defaultCronSchedule = "@every 1h"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	FrontendURL string

	UploadPath  string
	MaxFileSize int64

	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	CacheTTL time.Duration

	SendGrid struct {
		APIKey    string
		FromEmail string
		FromName  string
	}

	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}

	AuthRatePerSec float64
	AuthRateBurst  int

	CronSchedule string
}

// Load reads the environment, picking up a .env file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", defaultPort),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         getDuration("JWT_TTL", defaultJWTTTL),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3001"),
		UploadPath:     getEnv("UPLOAD_PATH", defaultUploadPath),
		MaxFileSize:    int64(getInt("MAX_FILE_SIZE", defaultMaxFileSize)),
		CacheTTL:       time.Duration(getInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		AuthRatePerSec: getFloat("AUTH_RATE_PER_SEC", 1),
		AuthRateBurst:  getInt("AUTH_RATE_BURST", 5),
		CronSchedule:   getEnv("CRON_SCHEDULE", defaultCronSchedule),
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	cfg.SendGrid.APIKey = os.Getenv("SENDGRID_API_KEY")
	cfg.SendGrid.FromEmail = os.Getenv("SENDGRID_FROM_EMAIL")
	cfg.SendGrid.FromName = getEnv("SENDGRID_FROM_NAME", "CarRental")

	cfg.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Twilio.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	return cfg
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) EmailEnabled() bool {
	return c.SendGrid.APIKey != "" && c.SendGrid.FromEmail != ""
}

func (c *Config) SMSEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
