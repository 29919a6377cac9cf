package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/storage"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// configEnvVar overrides the config file location.
const configEnvVar = "MUSICBOX_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	// .env provides local base URL overrides; it is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := os.Getenv(configEnvVar)
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	logger.SetLevel(shared.ParseLogLevel(config.Log.Level))

	var store storage.Store
	closeStore := func() {}
	if sqliteStore, err := storage.OpenSQLiteStore(config.Storage.StoragePath()); err == nil {
		closeStore = func() { sqliteStore.Close() }
		store = sqliteStore
	} else {
		logger.Warn("client storage unavailable, session will not persist", "error", err)
		store = storage.NewMemoryStore()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "musicbox",
		Usage:   "Your music library in the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.Run(ctx, os.Args)
	stop()
	closeStore()

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
