package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// const dsn = "host=localhost user=postgres password=password dbname=myguide port=5432 sslmode=disable TimeZone=Asia/Kolkata"

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// DatabaseConfig is the postgres connection and its pool limits.
type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		DSN:             GetDSN(),
		MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", DEFAULT_DB_MAX_IDLE_CONNS),
		MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", DEFAULT_DB_MAX_OPEN_CONNS),
		ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", DEFAULT_DB_CONN_LIFETIME),
	}
}

const (
	DATE_PARSE_FORMAT = "2006-01-02"

	DEFAULT_DB_MAX_IDLE_CONNS = 10
	DEFAULT_DB_MAX_OPEN_CONNS = 100
	DEFAULT_DB_CONN_LIFETIME  = 30 * time.Minute

	DEFAULT_TAX_RATE          = 0.18
	DEFAULT_SERVICE_FEE_RATE  = 0.05
	DEFAULT_BASE_PRICE        = 99.0
	DEFAULT_MIN_CANCEL_HOURS  = 24
	DEFAULT_MIN_PARTICIPANTS  = 1
	DEFAULT_MAX_PARTICIPANTS  = 50
	DEFAULT_CURRENCY          = "INR"
	DEFAULT_RAZORPAY_API_URL  = "https://api.razorpay.com/v1"
	DEFAULT_GATEWAY_TIMEOUT   = 10 * time.Second
	DEFAULT_NOTIFY_TIMEOUT    = 15 * time.Second
	DEFAULT_REMINDER_CRON     = "0 * * * *"
	DEFAULT_RECONCILE_EVERY   = 15 * time.Minute
	DEFAULT_RATE_LIMIT_MAX    = 100
	DEFAULT_RATE_LIMIT_WINDOW = 15 * time.Minute
)

type PricingConfig struct {
	TaxRate          float64
	ServiceFeeRate   float64
	DefaultBasePrice float64
}

type BookingConfig struct {
	MinCancellationHours int
	MinParticipants      int
	MaxParticipants      int
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	APIURL        string
	Currency      string
	Timeout       time.Duration
}

type MailConfig struct {
	Driver       string
	From         string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

type Config struct {
	Env         string
	StoreDriver string
	FrontendURL string

	Pricing  PricingConfig
	Booking  BookingConfig
	Razorpay RazorpayConfig
	Mail     MailConfig

	NotifyTimeout     time.Duration
	ReminderCron      string
	ReconcileInterval time.Duration
	RateLimitMax      int64
	RateLimitWindow   time.Duration
}

// Load reads the configuration from the environment. Call it after .env has been loaded.
func Load() *Config {
	return &Config{
		Env:         os.Getenv("API_ENV"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Pricing: PricingConfig{
			TaxRate:          getFloat("TAX_RATE", DEFAULT_TAX_RATE),
			ServiceFeeRate:   getFloat("SERVICE_FEE_RATE", DEFAULT_SERVICE_FEE_RATE),
			DefaultBasePrice: getFloat("DEFAULT_BASE_PRICE", DEFAULT_BASE_PRICE),
		},
		Booking: BookingConfig{
			MinCancellationHours: getInt("MIN_CANCELLATION_HOURS", DEFAULT_MIN_CANCEL_HOURS),
			MinParticipants:      getInt("MIN_PARTICIPANTS", DEFAULT_MIN_PARTICIPANTS),
			MaxParticipants:      getInt("MAX_PARTICIPANTS", DEFAULT_MAX_PARTICIPANTS),
		},
		Razorpay: RazorpayConfig{
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			APIURL:        getEnv("RAZORPAY_API_URL", DEFAULT_RAZORPAY_API_URL),
			Currency:      getEnv("PAYMENT_CURRENCY", DEFAULT_CURRENCY),
			Timeout:       getDuration("GATEWAY_TIMEOUT", DEFAULT_GATEWAY_TIMEOUT),
		},
		Mail: MailConfig{
			Driver:       getEnv("MAIL_DRIVER", "log"),
			From:         getEnv("MAIL_FROM", "no-reply@myguide.in"),
			FromName:     getEnv("MAIL_FROM_NAME", "My Guide"),
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     getInt("SMTP_PORT", 587),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		},
		NotifyTimeout:     getDuration("NOTIFY_TIMEOUT", DEFAULT_NOTIFY_TIMEOUT),
		ReminderCron:      getEnv("REMINDER_CRON", DEFAULT_REMINDER_CRON),
		ReconcileInterval: getDuration("RECONCILE_INTERVAL", DEFAULT_RECONCILE_EVERY),
		RateLimitMax:      int64(getInt("RATE_LIMIT_MAX", DEFAULT_RATE_LIMIT_MAX)),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", DEFAULT_RATE_LIMIT_WINDOW),
	}
}

// Default is the configuration with every value at its default, used by tests.
func Default() *Config {
	return &Config{
		StoreDriver: "memory",
		FrontendURL: "http://localhost:5173",
		Pricing: PricingConfig{
			TaxRate:          DEFAULT_TAX_RATE,
			ServiceFeeRate:   DEFAULT_SERVICE_FEE_RATE,
			DefaultBasePrice: DEFAULT_BASE_PRICE,
		},
		Booking: BookingConfig{
			MinCancellationHours: DEFAULT_MIN_CANCEL_HOURS,
			MinParticipants:      DEFAULT_MIN_PARTICIPANTS,
			MaxParticipants:      DEFAULT_MAX_PARTICIPANTS,
		},
		Razorpay: RazorpayConfig{
			APIURL:   DEFAULT_RAZORPAY_API_URL,
			Currency: DEFAULT_CURRENCY,
			Timeout:  DEFAULT_GATEWAY_TIMEOUT,
		},
		Mail:              MailConfig{Driver: "log"},
		NotifyTimeout:     DEFAULT_NOTIFY_TIMEOUT,
		ReminderCron:      DEFAULT_REMINDER_CRON,
		ReconcileInterval: DEFAULT_RECONCILE_EVERY,
		RateLimitMax:      DEFAULT_RATE_LIMIT_MAX,
		RateLimitWindow:   DEFAULT_RATE_LIMIT_WINDOW,
	}
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s\n", key, err.Error())
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %s\n", key, err.Error())
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid value for %s: %s\n", key, err.Error())
		return fallback
	}
	return d
}
