package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/elskow/gatehouse/internal/config"
)

const (
	pingTimeout        = 5 * time.Second
	slowQueryThreshold = time.Second
)

// Manager owns the gorm connection pool for the credential store.
type Manager struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	logger *zap.Logger
}

func NewManager(config *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger:         newZapLogger(logger, slowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := &Manager{db: db, config: config, logger: logger}
	if err := m.configurePool(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) DB() *gorm.DB {
	return m.db
}

func (m *Manager) configurePool() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if m.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	}
	if m.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	}
	if m.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	}
	return nil
}

// Ping checks that the database answers within pingTimeout. It backs the
// readiness probe.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
