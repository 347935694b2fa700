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
	LogLevel     string
	DatabasePath string

	JWTSecret string

	// RedisAddr empty means the in-process cache is used instead.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Engine defaults.
	RiskFreeRatePercent   string
	MonteCarloIterations  int
	MonteCarloWorkers     int
	RateLimitPerSecond    int
	RateLimitBurst        int
	ShutdownTimeout       time.Duration
	HistoryRetentionLimit int
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

	jwtSecret := getEnv("JWT_SECRET", "insecure-development-jwt-secret-at-least-32-bytes")
	if jwtSecret == "insecure-development-jwt-secret-at-least-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./atlasengine.db"),

		JWTSecret: jwtSecret,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 15*time.Minute),

		RiskFreeRatePercent:   getEnv("RISK_FREE_RATE_PERCENT", "4.5"),
		MonteCarloIterations:  getEnvAsInt("MONTE_CARLO_ITERATIONS", 10000),
		MonteCarloWorkers:     getEnvAsInt("MONTE_CARLO_WORKERS", 4),
		RateLimitPerSecond:    getEnvAsInt("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 40),
		ShutdownTimeout:       getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HistoryRetentionLimit: getEnvAsInt("HISTORY_RETENTION_LIMIT", 50),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RedisAddr=%q",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RedisAddr)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
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
