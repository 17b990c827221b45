package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cypherlabdev/stake-calculator-service/internal/cache"
	"github.com/cypherlabdev/stake-calculator-service/internal/config"
	httpHandler "github.com/cypherlabdev/stake-calculator-service/internal/handler/http"
	"github.com/cypherlabdev/stake-calculator-service/internal/handler/ws"
	"github.com/cypherlabdev/stake-calculator-service/internal/messaging"
	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/service"
	"github.com/cypherlabdev/stake-calculator-service/pkg/calculator"
)

func main() {
	// Load .env before viper reads the environment
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	configPath := os.Getenv("STAKE_CALCULATOR_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Load configuration; invalid calculator defaults fail here
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Str("config", configPath).Msg("starting stake-calculator-service")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Create calculator
	calc := calculator.NewCalculator(cfg.Calculator.ToCalculatorParams(), logger)
	logger.Info().
		Float64("good_edge_threshold_pct", cfg.Calculator.GoodEdgeThresholdPct).
		Msg("calculator initialized")

	// Create Redis cache
	redisCache := cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,

			// Results computed under another good-edge threshold are not reused
			Namespace: calc.CacheNamespace(),
		},
		logger,
	)
	defer redisCache.Close()

	// The cache is optional: calculations still work without Redis, /ready reports it
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, serving without cache")
	} else {
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	}

	// Create service layer
	stakeService := service.NewStakeService(calc, redisCache, cfg.Calculator.DefaultInputs(), m, logger)
	courseService := service.NewCourseService(m, logger)
	logger.Info().Msg("services initialized")

	if cfg.Kafka.Enabled {
		producer := messaging.NewKafkaProducer(
			messaging.KafkaProducerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.ResultTopic,
			},
			logger,
		)
		defer producer.Close()

		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.RequestTopic,
				GroupID: cfg.Kafka.GroupID,
			},
			calc,
			redisCache,
			producer,
			m,
			logger,
		)
		defer consumer.Close()

		// Start Kafka consumer in goroutine
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	} else {
		logger.Info().Msg("Kafka disabled")
	}

	// Initialize handlers
	stakeHandler := httpHandler.NewStakeHandler(stakeService, logger)
	courseHandler := httpHandler.NewCourseHandler(courseService, logger)
	socketHandler := ws.NewHandler(ctx, stakeService, cfg.Server.AllowedOrigins, m, logger)
	logger.Info().Msg("handlers initialized")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health and monitoring endpoints
	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, redisCache)
	})
	r.Handle("/metrics", promhttp.Handler())

	// The socket outlives the request timeout
	r.Get("/ws/stake", socketHandler.HandleStake)

	// Register API routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
		stakeHandler.RegisterRoutes(r)
		courseHandler.RegisterRoutes(r)
	})
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer and socket clients
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "stake-calculator").Logger()
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if the result cache is reachable
func readyHandler(w http.ResponseWriter, r *http.Request, cache *cache.RedisCache) {
	if err := cache.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Redis unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
