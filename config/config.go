package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the riceguard service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Detector sidecar configuration
	DetectorURL       string
	DetectorTimeout   time.Duration
	ConfThreshold     float64
	IoUThreshold      float64
	InputSize         int

	// File layout
	UploadsDir  string
	HistoryFile string

	// Email alerts
	SendGridAPIKey  string
	SendGridFrom    string
	SendGridName    string
	AlertRecipients []string

	// Event publishing
	AMQPURL         string
	AMQPExchange    string
	AMQPRoutingKey  string

	// Rate limiting
	DetectRateLimit  int
	DetectRateWindow time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "riceguard"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Detector defaults
		DetectorURL:     getEnv("DETECTOR_URL", "http://localhost:9090"),
		DetectorTimeout: getDurationEnv("DETECTOR_TIMEOUT", 60*time.Second),
		ConfThreshold:   getFloatEnv("CONF_THRESHOLD", 0.25),
		IoUThreshold:    getFloatEnv("IOU_THRESHOLD", 0.45),
		InputSize:       getIntEnv("INPUT_SIZE", 640),

		// File layout defaults
		UploadsDir:  getEnv("UPLOADS_DIR", "uploads"),
		HistoryFile: getEnv("HISTORY_FILE", "history.json"),

		// Email defaults
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:    getEnv("SENDGRID_FROM_EMAIL", "alerts@riceguard.io"),
		SendGridName:    getEnv("SENDGRID_FROM_NAME", "RiceGuard"),
		AlertRecipients: getStringSliceEnv("ALERT_RECIPIENTS", ""),

		// Event publishing defaults (disabled unless AMQP_URL is set)
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "riceguard"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "detection.created"),

		// Rate limit defaults
		DetectRateLimit:  getIntEnv("DETECT_RATE_LIMIT", 30),
		DetectRateWindow: getDurationEnv("DETECT_RATE_WINDOW", time.Minute),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getStringSliceEnv gets a comma-separated environment variable as a string slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
