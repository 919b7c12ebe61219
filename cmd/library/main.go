package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/library-ledger/internal/library"
	httpDelivery "github.com/tair/library-ledger/internal/library/delivery/http"
	"github.com/tair/library-ledger/internal/library/repository"
	"github.com/tair/library-ledger/internal/library/usecase/command"
	"github.com/tair/library-ledger/kafka"
	"github.com/tair/library-ledger/pkg/database"
	"github.com/tair/library-ledger/pkg/logger"
	"github.com/tair/library-ledger/pkg/tracing"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	serviceName := getEnv("OTEL_SERVICE_NAME", "library-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting library service")

	// Tracing
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Tracing disabled")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Warn().Err(err).Msg("Failed to shut down tracer")
			}
		}()
	}

	// Database
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "librarydb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Separate lib/pq connection for health checks, so probes stay
	// independent of the gorm pool.
	healthDB, err := database.NewPostgresConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open health check connection")
	}
	defer healthDB.Close()

	if err := repository.AutoMigrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	cfg := library.Config{
		LoanPeriod:    getDurationEnv("LOAN_PERIOD", 24*time.Hour),
		LockWait:      getDurationEnv("LOCK_WAIT", 3*time.Second),
		SweepInterval: getDurationEnv("SWEEP_INTERVAL", 5*time.Minute),
		CacheTTL:      getDurationEnv("REPORT_CACHE_TTL", 30*time.Second),
	}

	// Redis report cache (optional)
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})
		logger.Logger.Info().Str("addr", redisAddr).Msg("Report cache enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka (optional): events out, replenishment triggers in
	var publisher *kafka.Publisher
	var consumer *kafka.Consumer
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		publisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer publisher.Close()
		cfg.Trigger = publisher
		cfg.Events = publisher
		cfg.Expiry = publisher

		consumer, err = kafka.NewConsumer(
			strings.Split(brokers, ","),
			getEnv("KAFKA_GROUP_ID", "library-service"),
			[]string{kafka.TopicTransactions},
		)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()
	}

	app, err := library.InitializeApp(db, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	// With a broker, replenishment runs off the transaction topic instead
	// of the in-process trigger.
	if consumer != nil {
		consumer.RegisterTransactionCreatedHandler(func(ctx context.Context, event kafka.TransactionCreatedEvent) error {
			if event.Kind != "purchase" {
				return nil
			}
			return app.Replenish.Handle(ctx, command.EvaluateReplenishmentCommand{BookID: event.BookID})
		})
		if err := consumer.Start(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	// Expiry sweeper
	go app.Sweeper.Run(ctx)

	httpPort := getEnv("HTTP_PORT", "8083")
	go startHTTPServer(app.Handler, healthDB, httpPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	cancel()
}

func startHTTPServer(handler *httpDelivery.LibraryHandler, db *sql.DB, port string) {
	router := mux.NewRouter()

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	wrapped := otelhttp.NewHandler(c.Handler(router), "library-http")
	if err := http.ListenAndServe(":"+port, wrapped); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logger.Logger.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	}
	return fallback
}
