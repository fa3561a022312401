// Package main provides a standalone health check command for PantryChef.
// It can be used for container health checks, monitoring scripts and debugging.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/cache"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/pantrychef/pkg/healthcheck"
	"github.com/alchemorsel/pantrychef/pkg/logger"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts))
	}
	os.Exit(runRemoteHealthCheck(opts))
}

// parseFlags parses command-line flags
func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/health"), "Health check endpoint URL")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Lowest acceptable status: healthy or degraded")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Check dependencies directly instead of calling the server")

	flag.Parse()
	return opts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runRemoteHealthCheck calls the server's health endpoint
func runRemoteHealthCheck(opts Options) int {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r.StatusCode() >= 500 && r.StatusCode() != 503)
		})

	var response healthcheck.Response
	resp, err := client.R().SetResult(&response).SetError(&response).Get(opts.URL)
	if err != nil {
		fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, err)
		return exitCodeError
	}
	if response.Status == "" {
		fmt.Printf("Unexpected response (%d): %s\n", resp.StatusCode(), strings.TrimSpace(resp.String()))
		return exitCodeError
	}

	return outputResult(response, opts)
}

// runLocalHealthCheck probes the configured dependencies from this process
func runLocalHealthCheck(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{Level: "warn", Format: "console", Service: "health-check"})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return exitCodeError
	}

	hc := healthcheck.New(cfg.App.Version, log.Logger)
	closers, err := registerHealthChecks(hc, cfg, log.Logger)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	if err != nil {
		fmt.Printf("Failed to prepare checks: %v\n", err)
		return exitCodeError
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	return outputResult(hc.Check(ctx), opts)
}

// registerHealthChecks registers a check for every configured dependency
func registerHealthChecks(hc *healthcheck.HealthCheck, cfg *config.Config, log *zap.Logger) ([]func() error, error) {
	var closers []func() error

	db, err := openDatabase(cfg)
	if err != nil {
		return closers, err
	}
	closers = append(closers, db.Close)
	hc.Register("database", healthcheck.NewDatabaseChecker(db))

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			hc.Register("redis", healthcheck.NewCustomChecker("redis", healthcheck.StatusUnhealthy, func(context.Context) error {
				return err
			}))
		} else {
			closers = append(closers, client.Close)
			hc.Register("redis", healthcheck.NewRedisChecker(client.Client()))
		}
	}

	switch cfg.AI.Provider {
	case "openai":
		hc.Register("llm", healthcheck.NewExternalServiceChecker("llm", strings.TrimRight(cfg.AI.OpenAI.BaseURL, "/")+"/models", 5*time.Second))
	default:
		hc.Register("llm", healthcheck.NewExternalServiceChecker("llm", strings.TrimRight(cfg.AI.Ollama.BaseURL, "/")+"/api/tags", 5*time.Second))
	}

	return closers, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Driver == "postgres" {
		return migrations.Open(cfg.Database.URL())
	}

	path := cfg.Database.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return db.DB()
}

// outputResult prints the result and maps its status to an exit code
func outputResult(result healthcheck.Response, opts Options) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Println(string(data))
	default:
		outputText(result, opts.Verbose)
	}

	switch result.Status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if healthcheck.Status(opts.ExpectedStatus) == healthcheck.StatusDegraded {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}

// outputText prints the result in text format
func outputText(r healthcheck.Response, verbose bool) {
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %s\n", r.Version)
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))

	if verbose && len(r.Checks) > 0 {
		fmt.Println("\nChecks:")
		for _, check := range r.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Printf(" [%dms]\n", check.Duration.Milliseconds())
		}
	}
}
