package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

var validFormats = []string{"text", "json"}

// environment resolves the config and connections a command needs. Tests
// replace the loaders.
type environment struct {
	envFile    string
	format     string
	loadConfig func() (*config.Config, error)
	openDB     func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, error)
}

func defaultEnvironment() *environment {
	return &environment{
		loadConfig: config.Load,
		openDB: func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, error) {
			return db.New(ctx, cfg.DB, logg)
		},
	}
}

func newRootCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mealctl",
		Short:         "MealDash operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(env.format) {
				return fmt.Errorf("invalid format %q: must be one of %v", env.format, validFormats)
			}
			if env.envFile != "" {
				if err := godotenv.Load(env.envFile); err != nil {
					return fmt.Errorf("load %s: %w", env.envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&env.envFile, "env-file", "", "dotenv file to load before reading config")
	cmd.PersistentFlags().StringVar(&env.format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSeedCommand(env))
	cmd.AddCommand(newTokenCommand(env))
	cmd.AddCommand(newWalletsCommand(env))
	cmd.AddCommand(newOutboxCommand(env))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (e *environment) config() (*config.Config, *logger.Logger, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "mealctl",
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})
	return cfg, logg, nil
}

func (e *environment) database(ctx context.Context) (*config.Config, *logger.Logger, *db.Client, error) {
	cfg, logg, err := e.config()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := e.openDB(ctx, cfg, logg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, logg, client, nil
}

// emit writes v as indented JSON in json mode, else runs the text renderer.
func (e *environment) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if e.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
