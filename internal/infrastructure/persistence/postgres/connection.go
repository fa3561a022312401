// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/gorm"
)

// ConnectionManager manages the primary connection and optional read replicas
type ConnectionManager struct {
	config config.DatabaseConfig
	logger *zap.Logger
	db     *gorm.DB
}

// NewConnectionManager opens the primary database and registers read replicas
func NewConnectionManager(cfg config.DatabaseConfig, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{
		config: cfg,
		logger: log.Named("postgres"),
	}

	if err := cm.initializePrimaryConnection(); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	cm.logger.Info("Database connection manager initialized",
		zap.String("host", cfg.Host),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("replicas", len(cfg.ReplicaHosts)),
	)

	return cm, nil
}

// initializePrimaryConnection sets up the primary database connection
func (cm *ConnectionManager) initializePrimaryConnection() error {
	db, err := gorm.Open(postgres.Open(cm.config.DSN(cm.config.Host)), &gorm.Config{
		Logger:                 gormModels.NewLogger(cm.logger, cm.config.LogLevel, 0),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cm.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cm.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cm.config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	return nil
}

// initializeReadReplicas routes reads to replicas through the GORM DB resolver
func (cm *ConnectionManager) initializeReadReplicas() error {
	if len(cm.config.ReplicaHosts) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(cm.config.ReplicaHosts))
	for i, host := range cm.config.ReplicaHosts {
		replicas[i] = postgres.Open(cm.config.DSN(host))
	}

	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(cm.config.MaxOpenConns).
		SetMaxIdleConns(cm.config.MaxIdleConns).
		SetConnMaxLifetime(cm.config.ConnMaxLifetime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Strings("hosts", cm.config.ReplicaHosts))
	return nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// HealthCheck pings the primary database
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	sqlDB, err := cm.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary connection pool
func (cm *ConnectionManager) Close() error {
	sqlDB, err := cm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
