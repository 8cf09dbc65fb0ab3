package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreambot/internal/backend"
	"dreambot/internal/config"
	"dreambot/internal/handler"
	"dreambot/internal/repository"
	"dreambot/internal/repository/file"
	"dreambot/internal/repository/postgres"
	"dreambot/internal/service"
	"dreambot/internal/speech"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Dream Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Initialize session storage
	sessions, closeStore, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer closeStore()

	// Initialize backend client and services
	client := backend.NewHTTPClient(cfg.BackendURL, logger)

	authService := service.NewAuthService(sessions, client, logger)
	activityMonitor := service.NewActivityMonitor(client, logger)
	conversationService := service.NewConversationService(sessions, client, authService, activityMonitor, logger)
	paymentService := service.NewPaymentService(sessions, client, authService, logger)

	// Speech binaries
	transcriber := speech.NewTranscriber(
		cfg.Speech.FFmpegPath,
		cfg.Speech.WhisperBin,
		cfg.Speech.WhisperModel,
		cfg.Speech.Language,
		logger,
	)
	synthesizer := speech.NewSynthesizer(cfg.Speech.TTSCommand, cfg.Speech.TTSVoice, logger)

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize handler
	h := handler.NewHandler(bot, conversationService, paymentService, transcriber, synthesizer, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()

	logger.Info("Bot stopped gracefully")
}

// newSessionStore builds the configured session repository. The file
// store is the default; postgres keeps the same JSON document in a
// jsonb column.
func newSessionStore(cfg *config.Config, logger *zap.Logger) (repository.SessionRepository, func(), error) {
	switch cfg.SessionStore {
	case config.StorePostgres:
		db, err := connectDatabase(cfg.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}

		if err := runMigrations(db, logger); err != nil {
			db.Close()
			return nil, nil, err
		}

		logger.Info("Database session store ready")
		return postgres.NewSessionRepo(db), func() { db.Close() }, nil

	default:
		repo, err := file.NewSessionRepo(cfg.SessionsDir)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("File session store ready", zap.String("dir", cfg.SessionsDir))
		return repo, func() {}, nil
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		// Connection successful
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed")
	return nil
}
