package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/config"
	"github.com/woo-consulting/apimeter/internal/domain/budget"
	logpkg "github.com/woo-consulting/apimeter/internal/logger"
	"github.com/woo-consulting/apimeter/internal/metrics"
	"github.com/woo-consulting/apimeter/internal/providers"
	ledgerrepo "github.com/woo-consulting/apimeter/internal/repository/ledger"
	limitsrepo "github.com/woo-consulting/apimeter/internal/repository/limits"
	"github.com/woo-consulting/apimeter/internal/store"
	storeFile "github.com/woo-consulting/apimeter/internal/store/file"
	storeMemory "github.com/woo-consulting/apimeter/internal/store/memory"
	storeRedis "github.com/woo-consulting/apimeter/internal/store/redis"
	storeSqlite "github.com/woo-consulting/apimeter/internal/store/sqlite"
	chiTransport "github.com/woo-consulting/apimeter/internal/transport/chi"
	governoruc "github.com/woo-consulting/apimeter/internal/usecase/governor"
	savingsuc "github.com/woo-consulting/apimeter/internal/usecase/savings"
	"github.com/woo-consulting/apimeter/internal/version"
)

// Blob names match the JSON files the dashboard originally persisted.
const (
	usageBlobName   = "api_usage"
	budgetsBlobName = "api_budgets"
	savingsBlobName = "cost_log"
)

// blobStore is what main needs from a store driver.
type blobStore interface {
	Blob(name string) store.Blob
	Close()
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting apimeter server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx := context.Background()

	st, err := newStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create state store", zap.Error(err))
	}
	defer st.Close()

	// Register API usage metrics explicitly (no init())
	metrics.RegisterAPIMetrics()

	// Governor — loads persisted state, seeds default limits on first start.
	gov := governoruc.New(
		ctx,
		ledgerrepo.New(st.Blob(usageBlobName)),
		limitsrepo.New(st.Blob(budgetsBlobName)),
		seedLimits(cfg.Budgets),
		logger,
	)
	sav := savingsuc.New(ctx, st.Blob(savingsBlobName), logger)

	// Provider wrappers — only wired when an API key is configured.
	var generative *providers.Generative
	if cfg.Providers.Generative.APIKey != "" {
		generative = providers.NewGenerative(providers.GenerativeConfig{
			APIKey:               cfg.Providers.Generative.APIKey,
			BaseURL:              cfg.Providers.Generative.BaseURL,
			Model:                cfg.Providers.Generative.Model,
			InputCostPerMillion:  cfg.Providers.Generative.InputCostPerMillion,
			OutputCostPerMillion: cfg.Providers.Generative.OutputCostPerMillion,
		}, gov, logger)
	}
	var places *providers.Places
	if cfg.Providers.Places.APIKey != "" {
		places = providers.NewPlaces(providers.PlacesConfig{
			APIKey:         cfg.Providers.Places.APIKey,
			BaseURL:        cfg.Providers.Places.BaseURL,
			CostPerRequest: cfg.Providers.Places.CostPerRequest,
		}, gov, logger)
	}
	var weather *providers.Weather
	if cfg.Providers.Weather.APIKey != "" {
		weather = providers.NewWeather(providers.WeatherConfig{
			APIKey:         cfg.Providers.Weather.APIKey,
			BaseURL:        cfg.Providers.Weather.BaseURL,
			CostPerRequest: cfg.Providers.Weather.CostPerRequest,
		}, gov, logger)
	}

	server := chiTransport.NewServer(gov, sav, generative, places, weather, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the state store for the configured driver.
func newStore(ctx context.Context, cfg config.StorageConfig) (blobStore, error) {
	switch cfg.Driver {
	case "file":
		return storeFile.New(cfg.Dir)
	case "sqlite":
		return storeSqlite.New(cfg.Path)
	case "memory":
		return storeMemory.New(), nil
	case "redis":
		st, err := storeRedis.New(storeRedis.Config{
			Addrs:     cfg.Redis.Addrs,
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := st.WaitForReady(ctx, timeout); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// seedLimits converts configured budget seeds to domain limits.
func seedLimits(budgets map[string]config.BudgetConfig) map[string]budget.Limits {
	out := make(map[string]budget.Limits, len(budgets))
	for provider, b := range budgets {
		out[provider] = budget.Limits{
			DailyCalls:   b.DailyLimit,
			MonthlyCalls: b.MonthlyLimit,
			DailyCost:    b.DailyCostLimit,
			MonthlyCost:  b.MonthlyCostLimit,
			CostPerCall:  b.CostPerRequest,
		}
	}
	return out
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
