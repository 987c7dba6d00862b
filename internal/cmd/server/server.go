// Package server parses server command flags and composes the process
// entrypoint.
package server

import (
	"context"
	"flag"
	"fmt"

	app "github.com/louisbranch/linkup/internal/app"
	entrypoint "github.com/louisbranch/linkup/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr    string `env:"LINKUP_HTTP_ADDR"    envDefault:":8080"`
	DBPath      string `env:"LINKUP_DB_PATH"      envDefault:"linkup.db"`
	TokenSecret string `env:"LINKUP_TOKEN_SECRET"`
	TokenIssuer string `env:"LINKUP_TOKEN_ISSUER" envDefault:"linkup"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "JWT signing secret")
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "JWT issuer claim")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the messenger app and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		if err := app.Run(ctx, app.Config{
			HTTPAddr:    cfg.HTTPAddr,
			DBPath:      cfg.DBPath,
			TokenSecret: cfg.TokenSecret,
			TokenIssuer: cfg.TokenIssuer,
		}); err != nil {
			return fmt.Errorf("serve messenger: %w", err)
		}
		return nil
	})
}
