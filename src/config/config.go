package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	CORSAllowedOrigin string

	MaxImportSizeBytes int64

	// Quote refresh throttling. QuoteFetchRPS bounds how fast the sequential
	// per-ticker fetch hits the third-party API; QuoteCacheTTL is how long a
	// fetched price is reused before refetching.
	QuoteFetchRPS      float64
	QuoteCacheTTL      time.Duration
	QuoteClientTimeout time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxImportSizeBytesStr := getEnv("MAX_IMPORT_SIZE_BYTES", "10485760")
	maxImportSizeBytes, err := strconv.ParseInt(maxImportSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_IMPORT_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxImportSizeBytesStr, err)
		maxImportSizeBytes = 10 * 1024 * 1024
	}

	quoteFetchRPSStr := getEnv("QUOTE_FETCH_RPS", "2")
	quoteFetchRPS, err := strconv.ParseFloat(quoteFetchRPSStr, 64)
	if err != nil || quoteFetchRPS <= 0 {
		log.Printf("WARNING: Invalid QUOTE_FETCH_RPS '%s'. Using default 2. Error: %v", quoteFetchRPSStr, err)
		quoteFetchRPS = 2
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "3000"),
		DatabasePath: getEnv("DATABASE_PATH", "./yieldly.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		MaxImportSizeBytes: maxImportSizeBytes,

		QuoteFetchRPS:      quoteFetchRPS,
		QuoteCacheTTL:      getEnvAsDuration("QUOTE_CACHE_TTL", 15*time.Minute),
		QuoteClientTimeout: getEnvAsDuration("QUOTE_CLIENT_TIMEOUT", 20*time.Second),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
