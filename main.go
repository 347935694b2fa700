package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/atlasfin/engine/src/config"
	"github.com/atlasfin/engine/src/database"
	"github.com/atlasfin/engine/src/finance"
	"github.com/atlasfin/engine/src/handlers"
	"github.com/atlasfin/engine/src/logger"
	"github.com/atlasfin/engine/src/repository"
	"github.com/atlasfin/engine/src/services"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Atlas financial engine starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing result cache...")
	var cacheRepo repository.CacheRepository
	if config.Cfg.RedisAddr != "" {
		redisCache := repository.NewRedisCache(config.Cfg.RedisAddr, config.Cfg.RedisPassword, config.Cfg.RedisDB, config.Cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.L.Error("Redis unreachable, falling back to in-process cache", "addr", config.Cfg.RedisAddr, "error", err)
			cacheRepo = repository.NewLocalCache(config.Cfg.CacheTTL)
		} else {
			logger.L.Info("Redis cache connected", "addr", config.Cfg.RedisAddr)
			cacheRepo = redisCache
		}
		cancel()
	} else {
		cacheRepo = repository.NewLocalCache(config.Cfg.CacheTTL)
	}
	logger.L.Info("Result cache initialized.")

	riskFreePercent, err := finance.NewPercentFromString(config.Cfg.RiskFreeRatePercent)
	if err != nil {
		logger.L.Error("Invalid RISK_FREE_RATE_PERCENT", "value", config.Cfg.RiskFreeRatePercent, "error", err)
		os.Exit(1)
	}
	riskFree := finance.NewRate(riskFreePercent, finance.Annual)

	logger.L.Info("Initializing services and handlers...")
	historyRepo := repository.NewSQLiteHistoryRepository(database.DB)
	calculationService := services.NewCalculationService(
		cacheRepo, historyRepo, riskFree,
		config.Cfg.MonteCarloIterations, config.Cfg.MonteCarloWorkers,
	)
	calculationHandler := handlers.NewCalculationHandler(calculationService, config.Cfg.HistoryRetentionLimit)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/health", calculationHandler.HandleHealth)

	withAuth := handlers.AuthMiddleware(config.Cfg.JWTSecret)
	apiRouter.Handle("POST /api/calculate", withAuth(http.HandlerFunc(calculationHandler.HandleCalculate)))
	apiRouter.Handle("GET /api/calculations/history", withAuth(http.HandlerFunc(calculationHandler.HandleHistory)))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Atlas financial engine is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Error("Failed to start server", "error", err)
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("Shutdown signal received, draining connections...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Server stopped gracefully.")
}
