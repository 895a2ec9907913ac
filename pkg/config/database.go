package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the PostgreSQL connection pool and verifies it answers.
func InitDB(cfg *Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresConnStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	log.Info("connected to PostgreSQL")
	return db, nil
}

// CloseDB closes the connection pool.
func CloseDB(db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("error getting SQL DB from GORM", slog.String("error", err.Error()))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("error closing PostgreSQL connection", slog.String("error", err.Error()))
		return
	}
	log.Info("PostgreSQL connection closed")
}
