//go:build integration

// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/postgres"
)

// TestDatabase is a migrated pgvector database running in a container
type TestDatabase struct {
	Container testcontainers.Container
	GormDB    *gorm.DB
	PgxPool   *pgxpool.Pool
	Config    config.DatabaseConfig
	manager   *postgres.ConnectionManager
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "pgvector/pgvector:pg16",
		Database: "pantrychef_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts postgres with pgvector and applies all migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{cfg.Port + "/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(nat.Port(cfg.Port+"/tcp"), "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
						cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
				}),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	td := &TestDatabase{Container: container, t: t}
	t.Cleanup(td.Cleanup)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(cfg.Port))
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	td.Config = config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            portNum,
		Database:        cfg.Database,
		Username:        cfg.Username,
		Password:        cfg.Password,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		LogLevel:        "silent",
	}

	require.NoError(t, migrations.Run(td.Config.URL(), zap.NewNop()), "Failed to run migrations")

	td.manager, err = postgres.NewConnectionManager(td.Config, zap.NewNop())
	require.NoError(t, err, "Failed to connect with GORM")
	td.GormDB = td.manager.GetDB()

	poolConfig, err := pgxpool.ParseConfig(td.Config.URL())
	require.NoError(t, err)
	poolConfig.MaxConns = 4
	td.PgxPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err, "Failed to create pgx pool")

	return td
}

// TruncateAllTables removes all rows while keeping the schema
func (td *TestDatabase) TruncateAllTables() error {
	_, err := td.PgxPool.Exec(context.Background(), "TRUNCATE TABLE recipes, error_logs RESTART IDENTITY")
	return err
}

// CountRecords counts rows in a table
func (td *TestDatabase) CountRecords(table string) (int64, error) {
	var count int64
	err := td.PgxPool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, err
}

// Cleanup closes all connections and stops the container
func (td *TestDatabase) Cleanup() {
	if td.PgxPool != nil {
		td.PgxPool.Close()
	}
	if td.manager != nil {
		_ = td.manager.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			td.t.Logf("Failed to terminate postgres container: %v", err)
		}
	}
}

// TestRedis is a redis server running in a container
type TestRedis struct {
	Container testcontainers.Container
	Config    config.RedisConfig
}

// SetupTestRedis starts a redis container
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return &TestRedis{
		Container: container,
		Config: config.RedisConfig{
			Enabled:      true,
			Host:         host,
			Port:         portNum,
			MaxRetries:   1,
			PoolSize:     4,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}
