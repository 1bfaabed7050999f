package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peterclermy232/banking-system-backend/internal/config"
	"github.com/peterclermy232/banking-system-backend/internal/fees"
	ledger_http "github.com/peterclermy232/banking-system-backend/internal/handler/http/ledger"
	"github.com/peterclermy232/banking-system-backend/internal/infrastructure/database"
	kafka_infra "github.com/peterclermy232/banking-system-backend/internal/infrastructure/kafka"
	"github.com/peterclermy232/banking-system-backend/internal/ledger"
	"github.com/peterclermy232/banking-system-backend/internal/outbox"
	"github.com/peterclermy232/banking-system-backend/internal/repository/accounts_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/goals_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/outbox_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/transactions_repo"
	"github.com/peterclermy232/banking-system-backend/internal/settlement"
	"github.com/peterclermy232/banking-system-backend/internal/storage"
)

func ensureKafkaTopic(ctx context.Context, brokerURLs []string, topic string, logger *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		if err == kafka.TopicAlreadyExists {
			logger.Info("kafka topic already exists, skipping creation", zap.String("topic", topic))
			return nil
		}
		return fmt.Errorf("failed to create kafka topic: %w", err)
	}
	logger.Info("kafka topic ensured", zap.String("topic", topic))
	return nil
}

func loadFeeSchedule(cfg *config.Config, logger *zap.Logger) (*fees.Schedule, error) {
	if cfg.FeeSchedulePath == "" {
		schedule := fees.DefaultSchedule()
		logger.Info("using built-in fee schedule", zap.String("version", schedule.Version))
		return schedule, nil
	}
	schedule, err := fees.LoadSchedule(cfg.FeeSchedulePath)
	if err != nil {
		return nil, err
	}
	logger.Info("fee schedule loaded",
		zap.String("path", cfg.FeeSchedulePath),
		zap.String("version", schedule.Version))
	return schedule, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Ledger service starting...")

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(cfg.GetDBConnectionString())
		if err == nil {
			appLogger.Info("connected to postgres")
			break
		}
		appLogger.Warn(fmt.Sprintf("failed to connect to database (attempt %d/%d): %v, retrying in %s", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	if db == nil {
		appLogger.Fatal("could not connect to database after retries", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("error closing database connection", zap.Error(err))
		}
	}()

	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString())
	if err != nil {
		appLogger.Fatal("failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("database migrations completed")

	topicCtx, topicCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer topicCancel()
	if err := ensureKafkaTopic(topicCtx, cfg.GetKafkaBrokers(), cfg.NotificationsTopic, appLogger); err != nil {
		appLogger.Fatal("failed to ensure kafka topic", zap.Error(err))
	}

	schedule, err := loadFeeSchedule(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to load fee schedule", zap.Error(err))
	}

	store := storage.NewStore(db)
	accountRepository := accounts_repo.NewAccountRepository()
	transactionRepository := transactions_repo.NewTransactionRepository()
	goalRepository := goals_repo.NewSavingsGoalRepository()
	outboxRepository := outbox_repo.NewOutboxRepository()

	engine := ledger.NewEngine(
		store,
		accountRepository,
		transactionRepository,
		goalRepository,
		outboxRepository,
		fees.NewCalculator(schedule),
		appLogger.With(zap.String("component", "LedgerEngine")),
	)
	appLogger.Info("ledger engine initialized")

	gateway := settlement.NewHTTPGateway(cfg.SettlementGatewayURL, cfg.SettlementRequestTimeout)
	settlementWorker := settlement.NewWorker(
		store,
		transactionRepository,
		engine,
		gateway,
		cfg.SettlementPollInterval,
		cfg.SettlementGrace,
		cfg.SettlementStaleAfter,
		appLogger.With(zap.String("component", "SettlementWorker")),
	)

	kafkaProducer := kafka_infra.NewProducer(
		cfg.GetKafkaBrokers(),
		cfg.NotificationsTopic,
		appLogger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("error closing kafka producer", zap.Error(err))
		}
	}()

	outboxProcessor := outbox.NewProcessor(
		store,
		outboxRepository,
		kafkaProducer,
		cfg.OutboxPollInterval,
		appLogger.With(zap.String("component", "OutboxProcessor")),
	)

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	ledger_http.RegisterRoutes(router, engine, appLogger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	ctxMain, cancelMain := context.WithCancel(context.Background())

	go func() {
		appLogger.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go settlementWorker.Start(ctxMain)
	go outboxProcessor.Start(ctxMain)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("shutting down...")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down")
	}

	appLogger.Info("ledger service stopped")
}
