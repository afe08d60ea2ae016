package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// RailConfig holds the credentials and endpoint of one payment rail.
type RailConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	MerchantID    string
}

// CardRail returns the card-processor rail configuration.
func CardRail() RailConfig {
	return RailConfig{
		BaseURL:       GetEnv("CARDRAIL_BASE_URL", "https://api.cardrail.example.com/v1"),
		APIKey:        GetEnv("CARDRAIL_API_KEY", ""),
		WebhookSecret: GetEnv("CARDRAIL_WEBHOOK_SECRET", ""),
		MerchantID:    GetEnv("CARDRAIL_MERCHANT_ID", ""),
	}
}

// CliqRail returns the bank-transfer rail configuration.
func CliqRail() RailConfig {
	return RailConfig{
		BaseURL:       GetEnv("CLIQ_BASE_URL", "https://cliq.example.com.jo/api"),
		APIKey:        GetEnv("CLIQ_API_KEY", ""),
		WebhookSecret: GetEnv("CLIQ_WEBHOOK_SECRET", ""),
		MerchantID:    GetEnv("CLIQ_MERCHANT_ALIAS", ""),
	}
}

// SessionTTL is the default lifetime of a payment session.
func SessionTTL() time.Duration {
	return GetDurationEnv("SESSION_TTL", 15*time.Minute)
}

// SweepInterval is how often expired sessions are swept.
func SweepInterval() time.Duration {
	return GetDurationEnv("SWEEP_INTERVAL", time.Minute)
}
