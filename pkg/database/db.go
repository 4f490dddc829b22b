package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the Postgres connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the libpq keyword/value connection string.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, sslMode,
	)
}

var (
	db      *gorm.DB
	connErr error
	once    sync.Once
)

// Connect opens the shared connection pool once per process.
func Connect(cfg Config) (*gorm.DB, error) {
	once.Do(func() {
		conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			connErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}

		sqlDB, err := conn.DB()
		if err != nil {
			connErr = fmt.Errorf("failed to access connection pool: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("database connected")
		db = conn
	})

	return db, connErr
}
