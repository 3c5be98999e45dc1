// Package orthoguide parses OrthoGuide API flags and launches the service.
package orthoguide

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/orthoguide/orthoguide/internal/platform/cmd"
	"github.com/orthoguide/orthoguide/internal/platform/logging"
	server "github.com/orthoguide/orthoguide/internal/services/orthoguide/app"
)

// Config holds OrthoGuide command configuration.
type Config struct {
	HTTPAddr       string   `env:"ORTHOGUIDE_HTTP_ADDR" envDefault:":8000"`
	DBPath         string   `env:"ORTHOGUIDE_DB_PATH" envDefault:"data/test_data.db"`
	AllowedOrigins []string `env:"ORTHOGUIDE_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080,http://localhost:5173,http://localhost"`
	LogLevel       string   `env:"ORTHOGUIDE_LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"ORTHOGUIDE_LOG_FORMAT" envDefault:"text"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite store path, created and seeded when absent")
	fs.Func("allowed-origins", "Comma-separated CORS origins", func(value string) error {
		cfg.AllowedOrigins = splitOrigins(value)
		return nil
	})
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitOrigins(strings.Join(cfg.AllowedOrigins, ","))
	return cfg, nil
}

// Run starts the OrthoGuide HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Options{
		Service: entrypoint.ServiceOrthoGuide,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceOrthoGuide, options, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:       cfg.HTTPAddr,
			DBPath:         cfg.DBPath,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		})
	})
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
