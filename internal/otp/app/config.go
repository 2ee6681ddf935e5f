package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Optional: issuer claim for session tokens (default: otp-service)
	SessionSecret string // Required: HMAC secret for signing session tokens
	SessionTTL    time.Duration

	DatabaseFile string // Optional: path to SQLite database file (default: ./otp.db)

	SweepInterval time.Duration // Optional: expiration sweep interval (default: 1m)

	// Delivery channels. A channel with no configuration is left unwired and
	// dispatch requests for it are rejected as unsupported.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SMSAPIURL string
	SMSAPIKey string
	SMSFrom   string

	ChatBotAPIURL string
	ChatBotAPIKey string

	FilePath string // Optional: file channel output path (default: ./otp_codes.txt)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("OTP_ISSUER", "otp-service"),
		SessionSecret: os.Getenv("OTP_SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("OTP_SESSION_TTL", 30*time.Minute),

		DatabaseFile: getEnvOrDefault("OTP_DATABASE_FILE", "otp.db"),

		SweepInterval: getEnvDurationOrDefault("OTP_SWEEP_INTERVAL", time.Minute),

		SMTPHost:     os.Getenv("OTP_SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("OTP_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("OTP_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("OTP_SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("OTP_SMTP_FROM"),

		SMSAPIURL: os.Getenv("OTP_SMS_API_URL"),
		SMSAPIKey: os.Getenv("OTP_SMS_API_KEY"),
		SMSFrom:   os.Getenv("OTP_SMS_FROM"),

		ChatBotAPIURL: os.Getenv("OTP_CHATBOT_API_URL"),
		ChatBotAPIKey: os.Getenv("OTP_CHATBOT_API_KEY"),

		FilePath: getEnvOrDefault("OTP_FILE_PATH", "otp_codes.txt"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
