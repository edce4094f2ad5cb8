package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quotedesk/backend/internal/quote/access"
	"github.com/quotedesk/backend/internal/quote/audit"
	"github.com/quotedesk/backend/internal/quote/controller"
	"github.com/quotedesk/backend/internal/quote/db"
	"github.com/quotedesk/backend/internal/quote/events"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	DBHost             string   `yaml:"DB_HOST"`
	DBPort             int      `yaml:"DB_PORT"`
	DBUser             string   `yaml:"DB_USER"`
	DBPassword         string   `yaml:"DB_PASSWORD"`
	DBName             string   `yaml:"DB_NAME"`
	DBSSLMode          string   `yaml:"DB_SSLMODE"`
	KafkaBrokers       []string `yaml:"KAFKA_BROKERS"`
	Topic              string   `yaml:"TOPIC"`
	JWTSecret          string   `yaml:"JWT_SECRET"`
	ExpirySweepMinutes int      `yaml:"EXPIRY_SWEEP_MINUTES"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", zap.Error(err))
		}
	}()

	dispatcher, err := events.NewDispatcher(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		log.Fatal("failed to initialize notification dispatcher", err)
	}
	defer dispatcher.Close()

	gate := access.NewGate(repo, repo, logger)
	trail := audit.NewTrail(repo, logger)
	quoteSvc := controller.NewService(repo, gate, trail, dispatcher, repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runExpirySweep(ctx, quoteSvc, sweepInterval(cfg), logger)

	waitForShutdown(logger)
	cancel()
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads the YAML configuration, with environment variables
// (optionally from a .env file) overriding secrets.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	configPath := filepath.Join("internal", "quote", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	return &cfg, nil
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

func sweepInterval(cfg *Config) time.Duration {
	if cfg.ExpirySweepMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.ExpirySweepMinutes) * time.Minute
}

// runExpirySweep drives the explicit expiry transition on a ticker. The
// core never auto-expires quotes; this scheduler invokes it.
func runExpirySweep(ctx context.Context, svc *controller.Service, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := svc.ExpireDueQuotes(ctx, time.Now().UTC()); err != nil {
				logger.Error("expiry sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received.
func waitForShutdown(logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
}
