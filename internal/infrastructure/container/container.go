// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	aiapp "github.com/alchemorsel/pantrychef/internal/application/ai"
	"github.com/alchemorsel/pantrychef/internal/application/cookbook"
	"github.com/alchemorsel/pantrychef/internal/application/recipe"
	"github.com/alchemorsel/pantrychef/internal/application/workflow"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/cache"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/http/server"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/search"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/security"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
	"github.com/alchemorsel/pantrychef/pkg/healthcheck"
	"github.com/alchemorsel/pantrychef/pkg/logger"
)

// ConfigPath is the config file passed on the command line; empty searches the defaults
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	AIModule,
	WorkflowModule,
	ServiceModule,

	// HTTP modules
	HealthModule,
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*logger.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
		})
	},
	func(l *logger.Logger) *zap.Logger {
		return l.Logger
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		switch cfg.Database.Driver {
		case "postgres":
			return openPostgres(lc, cfg, log)
		default:
			return openSQLite(lc, cfg, log)
		}
	},
)

func openSQLite(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := sqlite.SetupDatabase(cfg.Database.Path, gormRepo.LogLevel(cfg.Database.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return sqlDB.Close() }})

	log.Info("Connected to SQLite database",
		zap.String("path", cfg.Database.Path),
		zap.Bool("in_memory", cfg.Database.Path == "" || cfg.Database.Path == ":memory:"),
	)
	return db, nil
}

func openPostgres(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Database.AutoMigrate {
		if err := migrations.Run(cfg.Database.URL(), log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	cm, err := postgres.NewConnectionManager(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})
	return cm.GetDB(), nil
}

// CacheModule provides caching. The redis client is nil when redis is disabled.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (outbound.CacheRepository, *cache.RedisClient, error) {
		if !cfg.Redis.Enabled {
			repo := memory.NewCacheRepository(cfg.Cache.CleanupInterval)
			lc.Append(fx.Hook{OnStop: func(context.Context) error {
				repo.Close()
				return nil
			}})
			log.Info("Using in-memory cache")
			return repo, nil, nil
		}

		client, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})

		metrics.RegisterCacheStats("redis", func() (int64, int64) {
			stats := client.Stats()
			return stats.Hits, stats.Misses
		})
		return redisRepo.NewCacheRepository(client, log), client, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	func(db *gorm.DB, cacheRepo outbound.CacheRepository, cfg *config.Config, log *zap.Logger) outbound.RecipeStore {
		return cache.NewCachedRecipeStore(gormRepo.NewRecipeRepository(db), cacheRepo, cfg.Cache.RecipeTTL, log)
	},
	fx.Annotate(
		gormRepo.NewErrorLogRepository,
		fx.As(new(outbound.ErrorLogRepository)),
	),
)

// AIModule provides the LLM provider, embeddings and web search
var AIModule = fx.Provide(
	func(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) (*ai.Provider, error) {
		return ai.NewProvider(aiConfig(cfg), metrics, log)
	},
	func(cfg *config.Config, provider *ai.Provider, cacheRepo outbound.CacheRepository, log *zap.Logger) outbound.EmbeddingService {
		return ai.NewEmbedder(aiConfig(cfg), provider, cacheRepo, log)
	},
	func(cfg *config.Config, log *zap.Logger) (search.Provider, error) {
		if !cfg.Search.Enabled {
			return nil, nil
		}
		return search.NewProvider(search.Config{
			Provider:      cfg.Search.Provider,
			TavilyAPIKey:  cfg.Search.TavilyAPIKey,
			TavilyBaseURL: cfg.Search.TavilyBaseURL,
			MaxResults:    cfg.Search.MaxResults,
			Depth:         cfg.Search.Depth,
			Timeout:       cfg.Search.Timeout,
		}, log)
	},
)

func aiConfig(cfg *config.Config) ai.Config {
	return ai.Config{
		Provider:          cfg.AI.Provider,
		CallTimeout:       cfg.AI.CallTimeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Burst:             cfg.AI.Burst,
		Embedding:         cfg.AI.Embedding,
		EmbeddingDims:     cfg.AI.EmbeddingDims,
		OpenAI: openai.Config{
			BaseURL:        cfg.AI.OpenAI.BaseURL,
			APIKey:         cfg.AI.OpenAI.APIKey,
			Model:          cfg.AI.OpenAI.Model,
			EmbeddingModel: cfg.AI.OpenAI.EmbeddingModel,
			MaxTokens:      cfg.AI.OpenAI.MaxTokens,
			Timeout:        cfg.AI.CallTimeout,
		},
		Ollama: ollama.Config{
			BaseURL:        cfg.AI.Ollama.BaseURL,
			Model:          cfg.AI.Ollama.Model,
			EmbeddingModel: cfg.AI.Ollama.EmbeddingModel,
			NumPredict:     cfg.AI.Ollama.NumPredict,
			Timeout:        cfg.AI.CallTimeout,
		},
	}
}

// WorkflowModule provides the cookbook and the recipe state machine
var WorkflowModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, store outbound.RecipeStore, embedder outbound.EmbeddingService, errorLog outbound.ErrorLogRepository, log *zap.Logger) *cookbook.Cookbook {
		cb := cookbook.New(store, embedder, errorLog, cookbook.Config{
			StoreTimeout: cfg.Database.StoreTimeout,
			EmbedTimeout: cfg.AI.EmbedTimeout,
			QueueSize:    cfg.Workflow.PersistQueueSize,
		}, log)
		lc.Append(fx.Hook{OnStop: cb.Close})
		return cb
	},
	func(cfg *config.Config, cb *cookbook.Cookbook, provider *ai.Provider, searchProvider search.Provider, metrics *monitoring.MetricsCollector, log *zap.Logger) *workflow.Orchestrator {
		stages := workflow.Stages{
			Exact:     cb,
			Semantic:  cb,
			Generator: aiapp.NewGenerator(provider, log),
			Validator: aiapp.NewReviewer(provider, log),
			Persister: cb,
		}
		if searchProvider != nil {
			stages.Web = aiapp.NewSearcher(searchProvider, provider, search.NewSanitizer(), aiapp.SearchConfig{
				MaxResults: cfg.Search.MaxResults,
				Depth:      cfg.Search.Depth,
			}, log)
		}

		return workflow.New(stages, workflow.Options{
			MaxIterations:     cfg.Workflow.MaxIterations,
			MaxExtras:         cfg.Workflow.MaxExtraIngredients,
			SemanticThreshold: cfg.Workflow.SemanticThreshold,
		}, log, metrics)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(orchestrator *workflow.Orchestrator, cb *cookbook.Cookbook, log *zap.Logger) inbound.RecipeService {
		return recipe.NewRecipeService(orchestrator, cb, log)
	},
)

// HealthModule provides dependency health checks
var HealthModule = fx.Provide(
	func(cfg *config.Config, db *gorm.DB, redisClient *cache.RedisClient, provider *ai.Provider, searchProvider search.Provider, log *zap.Logger) (*healthcheck.HealthCheck, error) {
		health := healthcheck.New(cfg.App.Version, log)

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

		if redisClient != nil {
			health.Register("redis", healthcheck.NewRedisChecker(redisClient.Client()))
		}

		health.Register("llm", ai.NewHealthChecker(provider))

		if searchProvider != nil {
			health.Register("search", healthcheck.NewCustomChecker("search", healthcheck.StatusDegraded, searchProvider.HealthCheck))
		}

		return health, nil
	},
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	security.NewValidationService,
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	path ConfigPath,
	appLogger *logger.Logger,
	log *zap.Logger,
	db *gorm.DB,
	embedder outbound.EmbeddingService,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting PantryChef",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("ai_provider", cfg.AI.Provider),
			)

			if cfg.Database.Seed {
				if err := sqlite.SeedDatabase(ctx, db, embedder); err != nil {
					log.Warn("Failed to seed database", zap.Error(err))
				}
			}

			if err := config.Watch(string(path), func(next *config.Config) {
				if err := appLogger.SetLevel(next.App.LogLevel); err != nil {
					log.Warn("Ignoring invalid log level from config", zap.Error(err))
				}
			}); err != nil {
				log.Debug("Config hot reload disabled", zap.Error(err))
			}

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down PantryChef")

			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout(cfg))
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
